// Package sonarr is the show catalog client.
package sonarr

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
	defaultQualityProfileID  = 1
	defaultLanguageProfileID = 1
	defaultRootFolder        = "/tv"

	// maxResults bounds search responses to what selection menus can
	// render downstream.
	maxResults = 20
)

// Client exposes the Sonarr operations the tracker needs.
type Client struct {
	api *arr.Client
}

// New builds a Sonarr client for the given base URL and API key.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{api: arr.New("sonarr", baseURL, apiKey, timeout)}
}

// Search looks up series by title. When exact is set, only
// case-insensitive title matches are returned.
func (c *Client) Search(ctx context.Context, query string, exact bool) ([]media.CatalogItem, error) {
	params := url.Values{"term": []string{query}}
	var results []media.CatalogItem
	if err := c.api.Get(ctx, "series/lookup", params, &results); err != nil {
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

// GetByID fetches a series by its Sonarr-internal identifier.
func (c *Client) GetByID(ctx context.Context, id int64) (media.CatalogItem, error) {
	var show media.CatalogItem
	if err := c.api.Get(ctx, fmt.Sprintf("series/%d", id), nil, &show); err != nil {
		return media.CatalogItem{}, err
	}
	return show, nil
}

// Add registers a series for acquisition and returns Sonarr's canonical
// record. The default quality and language profiles and root folder are
// applied; a missing-episode search is requested only when downloadNow
// is set.
func (c *Client) Add(ctx context.Context, item media.CatalogItem, downloadNow bool) (media.CatalogItem, error) {
	payload, err := addPayload(item, downloadNow)
	if err != nil {
		return media.CatalogItem{}, err
	}
	var added media.CatalogItem
	if err := c.api.Post(ctx, "series", payload, &added); err != nil {
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
		return nil, fmt.Errorf("encode series: %w", err)
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, fmt.Errorf("decode series payload: %w", err)
	}
	setField(payload, "qualityProfileId", defaultQualityProfileID)
	setField(payload, "languageProfileId", defaultLanguageProfileID)
	setField(payload, "rootFolderPath", defaultRootFolder)
	setField(payload, "monitored", true)
	setField(payload, "addOptions", map[string]bool{"searchForMissingEpisodes": downloadNow})
	return payload, nil
}

func setField(payload map[string]json.RawMessage, key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	payload[key] = encoded
}
