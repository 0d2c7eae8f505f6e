package requests

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fetcharr/internal/media"
)

// State represents the lifecycle of a request record.
type State string

const (
	// StatePendingUser: candidates were presented, waiting for the
	// requester to pick one.
	StatePendingUser State = "PENDING_USER"
	// StateDownloading: a candidate was chosen and the catalog is
	// acquiring it.
	StateDownloading State = "DOWNLOADING"
	// StateComplete is terminal. Records reaching it are deleted
	// immediately; persisted COMPLETE rows only ever appear if a
	// deletion was interrupted, and the poller cleans them up.
	StateComplete State = "COMPLETE"
)

var stateSet = map[State]struct{}{
	StatePendingUser: {},
	StateDownloading: {},
	StateComplete:    {},
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToUpper(strings.TrimSpace(value)))
	if _, ok := stateSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Request is one user-initiated query tracked to fulfillment. The id is
// supplied by the front end (conversation thread or interaction id) and
// is the primary key.
type Request struct {
	ID                int64
	RequestorID       int64
	Name              string
	MediaType         media.Type
	State             State
	MediaInfoJSON     string
	SearchResultsJSON string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MediaInfo decodes the most recent snapshot of the chosen catalog item.
func (r *Request) MediaInfo() (media.CatalogItem, error) {
	if strings.TrimSpace(r.MediaInfoJSON) == "" || r.MediaInfoJSON == "{}" {
		return media.CatalogItem{}, nil
	}
	var item media.CatalogItem
	if err := json.Unmarshal([]byte(r.MediaInfoJSON), &item); err != nil {
		return media.CatalogItem{}, fmt.Errorf("decode media info: %w", err)
	}
	return item, nil
}

// SetMediaInfo stores a snapshot of the chosen catalog item.
func (r *Request) SetMediaInfo(item media.CatalogItem) error {
	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode media info: %w", err)
	}
	r.MediaInfoJSON = string(encoded)
	return nil
}

// SearchResults decodes the stored candidate list in presentation order.
// Candidates are serialized as an index-to-item object keyed by the
// decimal ordinal.
func (r *Request) SearchResults() ([]media.CatalogItem, error) {
	if strings.TrimSpace(r.SearchResultsJSON) == "" || r.SearchResultsJSON == "{}" {
		return nil, nil
	}
	var indexed map[string]media.CatalogItem
	if err := json.Unmarshal([]byte(r.SearchResultsJSON), &indexed); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	ordinals := make([]int, 0, len(indexed))
	for key := range indexed {
		ordinal, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("decode search results: bad index %q", key)
		}
		ordinals = append(ordinals, ordinal)
	}
	sort.Ints(ordinals)

	items := make([]media.CatalogItem, 0, len(ordinals))
	for _, ordinal := range ordinals {
		items = append(items, indexed[strconv.Itoa(ordinal)])
	}
	return items, nil
}

// SetSearchResults stores the candidate list shown to the user.
func (r *Request) SetSearchResults(items []media.CatalogItem) error {
	indexed := make(map[string]media.CatalogItem, len(items))
	for i, item := range items {
		indexed[strconv.Itoa(i)] = item
	}
	encoded, err := json.Marshal(indexed)
	if err != nil {
		return fmt.Errorf("encode search results: %w", err)
	}
	r.SearchResultsJSON = string(encoded)
	return nil
}

// Age reports how long the record has existed.
func (r *Request) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
