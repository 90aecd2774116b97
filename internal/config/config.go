// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package config provides layered configuration for Groundwatch.
//
// Configuration is loaded in three layers with clear precedence:
//
//  1. Built-in defaults
//  2. Optional YAML config file (GROUNDWATCH_CONFIG or default search paths)
//  3. Environment variables (highest priority)
//
// All loading goes through Koanf v2; see koanf.go.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration for the Groundwatch client.
type Config struct {
	API         APIConfig         `koanf:"api"`
	Credentials CredentialsConfig `koanf:"credentials"`
	Stream      StreamConfig      `koanf:"stream"`
	Watch       WatchConfig       `koanf:"watch"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// APIConfig configures the HTTP client core.
type APIConfig struct {
	// URL is the base URL of the Groundwatch backend, e.g. "https://api.groundwatch.io".
	URL string `koanf:"url"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `koanf:"timeout"`

	// RateLimit is the maximum outbound requests per second. 0 disables
	// client-side pacing.
	RateLimit float64 `koanf:"rate_limit"`

	// RateBurst is the token bucket burst size for the rate limiter.
	RateBurst int `koanf:"rate_burst"`

	// BreakerEnabled wraps the API client with a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`

	// MaxRetries is the maximum retries for rate-limited (HTTP 429) requests.
	MaxRetries int `koanf:"max_retries"`

	// RetryBaseDelay is the base delay for exponential 429 backoff.
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// CacheTTL is the lifetime of cached GET responses. 0 disables caching.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheSize is the maximum number of cached GET responses.
	CacheSize int `koanf:"cache_size"`
}

// CredentialsConfig configures local token storage.
type CredentialsConfig struct {
	// Path is the file where the session tokens are persisted.
	// Defaults to $XDG_CONFIG_HOME/groundwatch/session.json.
	Path string `koanf:"path"`
}

// StreamConfig configures the live threat event stream.
type StreamConfig struct {
	Enabled bool `koanf:"enabled"`

	// PingInterval is the websocket keepalive interval.
	PingInterval time.Duration `koanf:"ping_interval"`

	// ReconnectMaxDelay caps the exponential reconnect backoff.
	ReconnectMaxDelay time.Duration `koanf:"reconnect_max_delay"`
}

// WatchConfig configures watch mode (live terminal dashboard).
type WatchConfig struct {
	// PollInterval is how often dashboard stats are refreshed.
	PollInterval time.Duration `koanf:"poll_interval"`

	// MinSeverity filters streamed threats below this severity.
	// One of: low, medium, high, critical.
	MinSeverity string `koanf:"min_severity"`
}

// MetricsConfig configures the optional Prometheus debug listener.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`

	// Addr is the listen address for /metrics, e.g. "127.0.0.1:9465".
	Addr string `koanf:"addr"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// severities lists the accepted threat severity names, lowest first.
var severities = []string{"low", "medium", "high", "critical"}

// Validate checks the configuration for invalid combinations.
// Called automatically by Load after unmarshaling.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("api.url is required (set GROUNDWATCH_API_URL or api.url in config)")
	}
	u, err := url.Parse(c.API.URL)
	if err != nil {
		return fmt.Errorf("api.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api.url is missing a host")
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %g", c.API.RateLimit)
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative, got %d", c.API.MaxRetries)
	}
	if c.API.CacheTTL < 0 {
		return fmt.Errorf("api.cache_ttl must not be negative, got %s", c.API.CacheTTL)
	}

	if c.Watch.MinSeverity != "" && !validSeverity(c.Watch.MinSeverity) {
		return fmt.Errorf("watch.min_severity must be one of %s, got %q",
			strings.Join(severities, ", "), c.Watch.MinSeverity)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics.enabled is true")
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func validSeverity(s string) bool {
	for _, v := range severities {
		if v == strings.ToLower(s) {
			return true
		}
	}
	return false
}

// CredentialsPath returns the resolved session file path, falling back to the
// per-user default when unset.
func (c *Config) CredentialsPath() string {
	if c.Credentials.Path != "" {
		return c.Credentials.Path
	}
	return DefaultCredentialsPath()
}

// DefaultCredentialsPath returns $XDG_CONFIG_HOME/groundwatch/session.json,
// or ~/.config/groundwatch/session.json when XDG_CONFIG_HOME is unset.
func DefaultCredentialsPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			// Last resort: relative to the working directory.
			return filepath.Join(".groundwatch", "session.json")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "groundwatch", "session.json")
}
