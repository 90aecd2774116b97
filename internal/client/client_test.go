// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/notify"
	"github.com/groundwatch/groundwatch/internal/session"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ notify.Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}

// testAPIConfig returns a config tuned for fast tests: no rate limiting, no
// breaker, no cache, millisecond backoff.
func testAPIConfig(baseURL string) *config.APIConfig {
	return &config.APIConfig{
		URL:            baseURL,
		Timeout:        5 * time.Second,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	}
}

// newTestClient builds a client against the given handler with a fresh
// on-disk session store. Callers mutate cfg before use when needed.
func newTestClient(t *testing.T, handler http.Handler, cfg *config.APIConfig) (*Client, *session.Store, *recordingNotifier) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	if cfg == nil {
		cfg = testAPIConfig(srv.URL)
	} else {
		cfg.URL = srv.URL
	}

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	notifier := &recordingNotifier{}
	return New(cfg, store, WithNotifier(notifier)), store, notifier
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	cfg := &config.APIConfig{
		URL:            "https://api.example.test/",
		Timeout:        time.Second,
		RateLimit:      10,
		RateBurst:      20,
		BreakerEnabled: true,
		CacheTTL:       time.Minute,
		CacheSize:      16,
	}
	c := New(cfg, store)

	if c.baseURL != "https://api.example.test" {
		t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
	}
	if c.limiter == nil {
		t.Error("limiter not built for RateLimit > 0")
	}
	if c.breaker == nil {
		t.Error("breaker not built for BreakerEnabled")
	}
	if c.cache == nil {
		t.Error("cache not built for CacheTTL > 0")
	}
	if c.Session() != store {
		t.Error("Session() did not return the injected store")
	}
}

func TestNewDisabledComponents(t *testing.T) {
	t.Parallel()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	c := New(&config.APIConfig{URL: "https://api.example.test"}, store)

	if c.limiter != nil {
		t.Error("limiter built with RateLimit = 0")
	}
	if c.breaker != nil {
		t.Error("breaker built with BreakerEnabled = false")
	}
	if c.cache != nil {
		t.Error("cache built with CacheTTL = 0")
	}
}
