package media

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies which catalog a request targets. Fixed at creation.
type Type string

const (
	TypeMovie Type = "MOVIE"
	TypeShow  Type = "SHOW"
)

// ParseType converts user input into a known media type.
func ParseType(value string) (Type, bool) {
	switch Type(strings.ToUpper(strings.TrimSpace(value))) {
	case TypeMovie:
		return TypeMovie, true
	case TypeShow:
		return TypeShow, true
	default:
		return "", false
	}
}

// SeasonStatistics carries Sonarr's per-season download accounting.
type SeasonStatistics struct {
	PercentOfEpisodes float64 `json:"percentOfEpisodes"`
}

// Season is one season entry from a Sonarr series payload.
type Season struct {
	SeasonNumber int              `json:"seasonNumber"`
	Statistics   SeasonStatistics `json:"statistics"`
}

// CatalogItem is one search result or registered record from Radarr or
// Sonarr. ServiceID is the catalog's internal identifier and is only
// present on items the catalog already tracks.
type CatalogItem struct {
	Title     string   `json:"title"`
	Year      int      `json:"year,omitempty"`
	TMDBID    int64    `json:"tmdbId,omitempty"`
	TVDBID    int64    `json:"tvdbId,omitempty"`
	ServiceID int64    `json:"id,omitempty"`
	Monitored bool     `json:"monitored,omitempty"`
	Available bool     `json:"isAvailable,omitempty"`
	HasFile   bool     `json:"hasFile,omitempty"`
	Status    string   `json:"status,omitempty"`
	Seasons   []Season `json:"seasons,omitempty"`

	// Extra holds catalog fields fetcharr does not interpret. They are
	// preserved across unmarshal/marshal so add requests keep the full
	// lookup payload.
	Extra map[string]json.RawMessage `json:"-"`
}

// catalogItemAlias prevents recursion inside the custom JSON methods.
type catalogItemAlias CatalogItem

var knownItemFields = []string{
	"title", "year", "tmdbId", "tvdbId", "id",
	"monitored", "isAvailable", "hasFile", "status", "seasons",
}

// UnmarshalJSON decodes the typed fields and stashes everything else in Extra.
func (c *CatalogItem) UnmarshalJSON(data []byte) error {
	var alias catalogItemAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, field := range knownItemFields {
		delete(raw, field)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*c = CatalogItem(alias)
	c.Extra = raw
	return nil
}

// MarshalJSON re-merges Extra under the typed fields; typed fields win.
func (c CatalogItem) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(catalogItemAlias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return typed, nil
	}

	merged := make(map[string]json.RawMessage, len(c.Extra)+len(knownItemFields))
	for key, value := range c.Extra {
		merged[key] = value
	}
	var typedMap map[string]json.RawMessage
	if err := json.Unmarshal(typed, &typedMap); err != nil {
		return nil, err
	}
	for key, value := range typedMap {
		merged[key] = value
	}
	return json.Marshal(merged)
}

// Key returns the catalog-natural identifier used for disambiguation
// selections: TMDB id for movies, TVDB id for shows.
func (c CatalogItem) Key(mediaType Type) int64 {
	if mediaType == TypeShow {
		return c.TVDBID
	}
	return c.TMDBID
}

// Registered reports whether the catalog already tracks this item.
// Radarr marks registered movies as monitored; Sonarr assigns its
// internal id only to series in its database.
func (c CatalogItem) Registered(mediaType Type) bool {
	if mediaType == TypeShow {
		return c.ServiceID != 0
	}
	return c.Monitored
}

// AvailableNow reports whether the item can be (or already is) obtained.
// Shows still marked "upcoming" have not aired yet.
func (c CatalogItem) AvailableNow(mediaType Type) bool {
	if mediaType == TypeShow {
		return c.Status != "" && !strings.EqualFold(c.Status, "upcoming")
	}
	return c.Available
}

// Finished reports whether the acquisition is complete: movies once the
// file is present, shows once every season-one episode is downloaded.
// Later seasons download independently and do not gate completion.
func (c CatalogItem) Finished(mediaType Type) bool {
	if mediaType == TypeShow {
		percent, ok := c.SeasonPercent(1)
		return ok && percent == 100.0
	}
	return c.HasFile
}

// SeasonPercent returns the percent of downloaded episodes for a season.
func (c CatalogItem) SeasonPercent(seasonNumber int) (float64, bool) {
	for _, season := range c.Seasons {
		if season.SeasonNumber == seasonNumber {
			return season.Statistics.PercentOfEpisodes, true
		}
	}
	return 0, false
}

// Label renders the item for prompts and logs, e.g. "Dune (2021)".
func (c CatalogItem) Label() string {
	if c.Year > 0 {
		return fmt.Sprintf("%s (%d)", c.Title, c.Year)
	}
	return c.Title
}
