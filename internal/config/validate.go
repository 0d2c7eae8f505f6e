package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Deployment != DeploymentProd && c.Deployment != DeploymentTest {
		return fmt.Errorf("deployment must be %q or %q", DeploymentProd, DeploymentTest)
	}
	if err := validateCatalog("radarr", c.Radarr); err != nil {
		return err
	}
	if err := validateCatalog("sonarr", c.Sonarr); err != nil {
		return err
	}
	if c.Requests.MaxRequests <= 0 {
		return errors.New("requests.max_requests must be positive")
	}
	if c.Requests.MaxTimePendingMinutes <= 0 {
		return errors.New("requests.max_time_pending_minutes must be positive")
	}
	if c.Requests.PollIntervalMinutes <= 0 {
		return errors.New("requests.poll_interval_minutes must be positive")
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func validateCatalog(name string, catalog Catalog) error {
	if strings.TrimSpace(catalog.URL) == "" {
		return fmt.Errorf("%s.url must be set", name)
	}
	if strings.TrimSpace(catalog.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fetcharr/config.toml"
		}
		return fmt.Errorf("%s.api_key is required. Set %s_API_KEY env var or edit %s (create with 'fetcharrd config init')",
			name, strings.ToUpper(name), defaultPath)
	}
	return nil
}
