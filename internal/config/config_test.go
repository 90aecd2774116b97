// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"GROUNDWATCH_API_URL", "api.url"},
		{"GROUNDWATCH_API_RATE_LIMIT", "api.rate_limit"},
		{"GROUNDWATCH_API_RETRY_BASE_DELAY", "api.retry_base_delay"},
		{"GROUNDWATCH_STREAM_PING_INTERVAL", "stream.ping_interval"},
		{"GROUNDWATCH_CREDENTIALS_PATH", "credentials.path"},
		{"GROUNDWATCH_LOGGING_LEVEL", "logging.level"},
		{"GROUNDWATCH_METRICS_ADDR", "metrics.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("default api.timeout = %s, want 30s", cfg.API.Timeout)
	}
	if !cfg.API.BreakerEnabled {
		t.Error("expected circuit breaker enabled by default")
	}
	if cfg.Watch.MinSeverity != "low" {
		t.Errorf("default watch.min_severity = %q, want low", cfg.Watch.MinSeverity)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics listener must be opt-in")
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groundwatch.yaml")
	yaml := `
api:
  url: https://file.example.com
  timeout: 10s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("GROUNDWATCH_API_URL", "https://env.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// ENV beats file
	if cfg.API.URL != "https://env.example.com" {
		t.Errorf("api.url = %q, want env override", cfg.API.URL)
	}
	// File beats defaults
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("api.timeout = %s, want 10s from file", cfg.API.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, want debug from file", cfg.Logging.Level)
	}
	// Untouched values keep defaults
	if cfg.API.MaxRetries != 5 {
		t.Errorf("api.max_retries = %d, want default 5", cfg.API.MaxRetries)
	}
}

func TestLoadRequiresURL(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GROUNDWATCH_API_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when api.url is unset")
	}
	if !strings.Contains(err.Error(), "api.url") {
		t.Errorf("error should name api.url, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.API.URL = "https://api.example.com"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad scheme",
			mutate:  func(c *Config) { c.API.URL = "ftp://api.example.com" },
			wantErr: "http or https",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.API.URL = "https://" },
			wantErr: "host",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.API.Timeout = 0 },
			wantErr: "api.timeout",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.API.RateLimit = -1 },
			wantErr: "api.rate_limit",
		},
		{
			name:    "bad severity",
			mutate:  func(c *Config) { c.Watch.MinSeverity = "apocalyptic" },
			wantErr: "watch.min_severity",
		},
		{
			name: "metrics enabled without addr",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: "metrics.addr",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialsPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	cfg := defaultConfig()
	got := cfg.CredentialsPath()
	want := filepath.Join("/tmp/xdg-test", "groundwatch", "session.json")
	if got != want {
		t.Errorf("CredentialsPath() = %q, want %q", got, want)
	}

	cfg.Credentials.Path = "/explicit/session.json"
	if cfg.CredentialsPath() != "/explicit/session.json" {
		t.Errorf("explicit credentials path not honored")
	}
}
