package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Deployment modes. Test mode shortens the poll interval and the
// pending window and suppresses immediate downloads on add.
const (
	DeploymentProd = "prod"
	DeploymentTest = "test"
)

// Catalog holds the connection settings for one acquisition service.
type Catalog struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Requests tunes the request lifecycle rules.
type Requests struct {
	MaxRequests           int `toml:"max_requests"`
	MaxTimePendingMinutes int `toml:"max_time_pending_minutes"`
	PollIntervalMinutes   int `toml:"poll_interval_minutes"`
}

// Notifications configures the Discord direct-message sink.
type Notifications struct {
	DiscordToken   string `toml:"discord_token"`
	APIBaseURL     string `toml:"api_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Server configures the HTTP intake API.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
}

// Logging configures log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fetcharr.
type Config struct {
	Deployment    string        `toml:"deployment"`
	DataDir       string        `toml:"data_dir"`
	Radarr        Catalog       `toml:"radarr"`
	Sonarr        Catalog       `toml:"sonarr"`
	Requests      Requests      `toml:"requests"`
	Notifications Notifications `toml:"notifications"`
	Server        Server        `toml:"server"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/fetcharr/config.toml")
}

// Sample returns the embedded sample configuration file contents.
func Sample() string {
	return sampleConfig
}

// Load locates, parses, normalizes, and validates a configuration file.
// A .env file in the working directory and process env vars override
// secrets. The returned path is where the config was (or would be) read.
func Load(path string) (*Config, string, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return &cfg, resolvedPath, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Deployment = strings.ToLower(strings.TrimSpace(c.Deployment))
	if c.Deployment == "" {
		c.Deployment = DeploymentProd
	}

	applyEnvOverrides(c)

	if c.Requests.PollIntervalMinutes <= 0 {
		if c.TestMode() {
			c.Requests.PollIntervalMinutes = testPollIntervalMinutes
		} else {
			c.Requests.PollIntervalMinutes = defaultPollIntervalMinutes
		}
	}
	if c.Requests.MaxTimePendingMinutes <= 0 {
		if c.TestMode() {
			c.Requests.MaxTimePendingMinutes = testMaxTimePendingMinutes
		} else {
			c.Requests.MaxTimePendingMinutes = defaultMaxTimePendingMinutes
		}
	}

	dataDir, err := expandPath(c.DataDir)
	if err != nil {
		return err
	}
	c.DataDir = dataDir
	return nil
}

func applyEnvOverrides(c *Config) {
	if v := os.Getenv("RADARR_API_KEY"); v != "" {
		c.Radarr.APIKey = v
	}
	if v := os.Getenv("SONARR_API_KEY"); v != "" {
		c.Sonarr.APIKey = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Notifications.DiscordToken = v
	}
	if v := os.Getenv("FETCHARR_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("FETCHARR_DEPLOYMENT"); v != "" {
		c.Deployment = strings.ToLower(strings.TrimSpace(v))
	}
}

// TestMode reports whether the deployment flag selects test behavior.
func (c *Config) TestMode() bool {
	return c.Deployment == DeploymentTest
}

// DownloadNow reports whether add calls should trigger an immediate
// search. Suppressed in test mode so test deployments never start
// real downloads.
func (c *Config) DownloadNow() bool {
	return !c.TestMode()
}

// PollInterval returns how often the poller sweeps the store.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Requests.PollIntervalMinutes) * time.Minute
}

// MaxTimePending returns the pending-user window.
func (c *Config) MaxTimePending() time.Duration {
	return time.Duration(c.Requests.MaxTimePendingMinutes) * time.Minute
}

// Timeout returns the per-call deadline for a catalog client.
func (c Catalog) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "requests.db")
}

// LockPath returns the daemon's single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "fetcharrd.lock")
}

// EnsureDirectories creates the data directory when missing.
func (c *Config) EnsureDirectories() error {
	if c.DataDir == "" {
		return errors.New("data_dir is not set")
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
