package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fetcharr/internal/services"
)

const userAgent = "Fetcharr/0.1.0"

// terabyte converts the byte counts Radarr and Sonarr report into the
// normalized unit the admission check uses.
const terabyte = 1e12

// Client speaks the v3 HTTP API shared by Radarr and Sonarr. Vendor
// packages wrap it with their endpoint names and payload shapes.
type Client struct {
	service string
	baseURL string
	apiKey  string
	http    *http.Client
}

// New builds a v3 API client. The service name appears in errors and
// logs ("radarr" or "sonarr").
func New(service, baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    &http.Client{Timeout: timeout},
	}
}

// Service returns the vendor name this client talks to.
func (c *Client) Service() string {
	return c.service
}

// Get issues an authenticated GET against /api/v3/<path> and decodes the
// JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues an authenticated POST with a JSON body against
// /api/v3/<path> and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/api/v3/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: call %s: %w", services.ErrTransient, c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return &services.StatusError{Service: c.service, Code: resp.StatusCode}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.service, err)
	}
	return nil
}

type diskSpace struct {
	Path      string `json:"path"`
	FreeSpace int64  `json:"freeSpace"`
}

// FreeSpace returns the largest free root-folder volume in terabytes.
func (c *Client) FreeSpace(ctx context.Context) (float64, error) {
	var volumes []diskSpace
	if err := c.Get(ctx, "diskspace", nil, &volumes); err != nil {
		return 0, err
	}
	var most int64
	for _, volume := range volumes {
		if volume.FreeSpace > most {
			most = volume.FreeSpace
		}
	}
	return float64(most) / terabyte, nil
}
