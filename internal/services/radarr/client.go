// Package radarr is the movie catalog client.
package radarr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"fetcharr/internal/media"
	"fetcharr/internal/services/arr"
)

const (
	defaultQualityProfileID = 1
	defaultRootFolder       = "/movies"

	// maxResults bounds search responses to what selection menus can
	// render downstream.
	maxResults = 20
)

// Client exposes the Radarr operations the tracker needs.
type Client struct {
	api *arr.Client
}

// New builds a Radarr client for the given base URL and API key.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{api: arr.New("radarr", baseURL, apiKey, timeout)}
}

// Search looks up movies by title. When exact is set, only
// case-insensitive title matches are returned.
func (c *Client) Search(ctx context.Context, query string, exact bool) ([]media.CatalogItem, error) {
	params := url.Values{"term": []string{query}}
	var results []media.CatalogItem
	if err := c.api.Get(ctx, "movie/lookup", params, &results); err != nil {
		return nil, err
	}
	if exact {
		matches := results[:0]
		for _, result := range results {
			if strings.EqualFold(result.Title, query) {
				matches = append(matches, result)
			}
		}
		results = matches
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// GetByID fetches a movie by its Radarr-internal identifier.
func (c *Client) GetByID(ctx context.Context, id int64) (media.CatalogItem, error) {
	var movie media.CatalogItem
	if err := c.api.Get(ctx, fmt.Sprintf("movie/%d", id), nil, &movie); err != nil {
		return media.CatalogItem{}, err
	}
	return movie, nil
}

// Add registers a movie for acquisition and returns Radarr's canonical
// record, including the newly assigned internal id. The default quality
// profile and root folder are applied; a search is requested only when
// downloadNow is set.
func (c *Client) Add(ctx context.Context, item media.CatalogItem, downloadNow bool) (media.CatalogItem, error) {
	payload, err := addPayload(item, downloadNow)
	if err != nil {
		return media.CatalogItem{}, err
	}
	var added media.CatalogItem
	if err := c.api.Post(ctx, "movie", payload, &added); err != nil {
		return media.CatalogItem{}, err
	}
	return added, nil
}

// FreeSpace reports the available storage in terabytes.
func (c *Client) FreeSpace(ctx context.Context) (float64, error) {
	return c.api.FreeSpace(ctx)
}

func addPayload(item media.CatalogItem, downloadNow bool) (map[string]json.RawMessage, error) {
	encoded, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode movie: %w", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, fmt.Errorf("decode movie payload: %w", err)
	}
	setField(payload, "qualityProfileId", defaultQualityProfileID)
	setField(payload, "rootFolderPath", defaultRootFolder)
	setField(payload, "monitored", true)
	setField(payload, "addOptions", map[string]bool{"searchForMovie": downloadNow})
	return payload, nil
}

func setField(payload map[string]json.RawMessage, key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	payload[key] = encoded
}
