// Package notify delivers user-facing messages. The production
// implementation DMs requesters through the Discord REST API; when no
// bot token is configured a noop implementation is returned so callers
// never need nil checks.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fetcharr/internal/config"
)

const userAgent = "Fetcharr/0.1.0"

// Service delivers a message to a user. Sends are best-effort: callers
// log failures and move on rather than failing their own operation.
type Service interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// NewService builds a notification service backed by Discord DMs when a
// bot token is configured, and a noop sink otherwise.
func NewService(cfg *config.Config) Service {
	token := strings.TrimSpace(cfg.Notifications.DiscordToken)
	if token == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Notifications.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = "https://discord.com/api/v10"
	}

	return &discordService{
		baseURL:  baseURL,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		channels: make(map[int64]string),
	}
}

type discordService struct {
	baseURL string
	token   string
	client  *http.Client

	mu       sync.Mutex
	channels map[int64]string
}

// Notify opens (or reuses) the user's DM channel and posts the message.
func (d *discordService) Notify(ctx context.Context, userID int64, text string) error {
	channelID, err := d.ensureChannel(ctx, userID)
	if err != nil {
		return err
	}

	body := map[string]string{"content": text}
	var resp struct {
		ID string `json:"id"`
	}
	path := fmt.Sprintf("channels/%s/messages", channelID)
	if err := d.post(ctx, path, body, &resp); err != nil {
		return fmt.Errorf("send direct message: %w", err)
	}
	return nil
}

// ensureChannel resolves the DM channel for a user, caching the result
// so repeated notifications skip the extra round trip.
func (d *discordService) ensureChannel(ctx context.Context, userID int64) (string, error) {
	d.mu.Lock()
	if channelID, ok := d.channels[userID]; ok {
		d.mu.Unlock()
		return channelID, nil
	}
	d.mu.Unlock()

	body := map[string]string{"recipient_id": strconv.FormatInt(userID, 10)}
	var resp struct {
		ID string `json:"id"`
	}
	if err := d.post(ctx, "users/@me/channels", body, &resp); err != nil {
		return "", fmt.Errorf("open direct message channel: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("open direct message channel: empty channel id")
	}

	d.mu.Lock()
	d.channels[userID] = resp.ID
	d.mu.Unlock()
	return resp.ID, nil
}

func (d *discordService) post(ctx context.Context, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	endpoint := d.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type noopService struct{}

func (noopService) Notify(context.Context, int64, string) error { return nil }
