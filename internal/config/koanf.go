// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"groundwatch.yaml",
	"groundwatch.yml",
	"/etc/groundwatch/config.yaml",
	"/etc/groundwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "GROUNDWATCH_CONFIG"

// envPrefix namespaces all Groundwatch environment variables.
const envPrefix = "GROUNDWATCH_"

// defaultConfig returns a Config with all default values. Defaults are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			URL:            "",
			Timeout:        30 * time.Second,
			RateLimit:      10,
			RateBurst:      20,
			BreakerEnabled: true,
			MaxRetries:     5,
			RetryBaseDelay: 1 * time.Second,
			CacheTTL:       30 * time.Second,
			CacheSize:      256,
		},
		Credentials: CredentialsConfig{
			Path: "", // Resolved lazily; see CredentialsPath
		},
		Stream: StreamConfig{
			Enabled:           true,
			PingInterval:      30 * time.Second,
			ReconnectMaxDelay: 2 * time.Minute,
		},
		Watch: WatchConfig{
			PollInterval: 15 * time.Second,
			MinSeverity:  "low",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9465",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: GROUNDWATCH_* overrides
//
// Precedence: ENV > File > Defaults. The result is validated before return.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables (highest priority).
	// GROUNDWATCH_API_URL -> api.url, GROUNDWATCH_LOGGING_LEVEL -> logging.level
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring GROUNDWATCH_CONFIG first.
// Returns the first path that exists, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// The first underscore after the prefix separates the section from the key;
// the key keeps its remaining underscores:
//
//	GROUNDWATCH_API_URL              -> api.url
//	GROUNDWATCH_API_RATE_LIMIT       -> api.rate_limit
//	GROUNDWATCH_STREAM_PING_INTERVAL -> stream.ping_interval
//	GROUNDWATCH_CREDENTIALS_PATH     -> credentials.path
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}
