// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"fetcharr/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a validated test config seeded with a unique temp
// data directory. Deployment defaults to test mode so intervals are
// short and add calls never trigger real downloads.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Deployment = config.DeploymentTest
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.Radarr.URL = "http://127.0.0.1:7878"
	cfg.Radarr.APIKey = "test"
	cfg.Sonarr.URL = "http://127.0.0.1:8989"
	cfg.Sonarr.APIKey = "test"
	cfg.Requests.MaxTimePendingMinutes = 1
	cfg.Requests.PollIntervalMinutes = 1
	cfg.Server.Bind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDeployment overrides the deployment mode on the test config.
func WithDeployment(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Deployment = mode
	}
}

// WithMaxRequests overrides the per-user quota on the test config.
func WithMaxRequests(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Requests.MaxRequests = n
	}
}

// WithAPIToken sets the bearer token the API server enforces.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.APIToken = token
	}
}
