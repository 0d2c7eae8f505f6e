// Package config loads, normalizes, and validates fetcharr's TOML
// configuration. Defaults live in defaults.go; secrets may be injected
// through environment variables or an optional .env file.
package config
