// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

/*
Package client implements the Groundwatch REST API client.

The Client is the single entry point to the Groundwatch backend. It owns:

  - HTTP transport with bearer authentication (transport.go)
  - The token-refresh coordinator (refresh.go)
  - Circuit breaker protection (breaker.go)
  - Client-side rate limiting and HTTP 429 backoff
  - An ephemeral GET-response cache

The session store is injected, never ambient: every Client instance reads and
rotates tokens through the session.Store it was constructed with.

Thread Safety: all methods are safe for concurrent use. Concurrent requests
that fail with 401 share a single token refresh; see refresh.go.
*/
package client

import (
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/groundwatch/groundwatch/internal/cache"
	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/notify"
	"github.com/groundwatch/groundwatch/internal/session"
)

// userAgent identifies the client to the backend.
const userAgent = "groundwatch-cli/1.0"

// Client communicates with the Groundwatch REST API.
type Client struct {
	baseURL  string
	http     *http.Client
	session  *session.Store
	notifier notify.Notifier

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*httpResult]
	cache   *cache.LRU[[]byte]

	maxRetries     int
	retryBaseDelay time.Duration

	// Token-refresh coordinator state; see refresh.go.
	refreshMu  sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

// Option customizes a Client.
type Option func(*Client)

// WithNotifier sets the notifier for user-visible errors. Defaults to a
// terminal notifier on stderr.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithHTTPClient replaces the underlying http.Client. Mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Groundwatch API client from configuration. The session store
// is the client's only source of tokens.
func New(cfg *config.APIConfig, store *session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		session:        store,
		notifier:       notify.NewTerminal(nil),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.CacheTTL > 0 {
		c.cache = cache.NewLRU[[]byte](cfg.CacheSize, cfg.CacheTTL)
	}

	if cfg.BreakerEnabled {
		c.breaker = newAPIBreaker()
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Session exposes the injected session store, for callers that need to
// inspect authentication state (e.g. the CLI's whoami command).
func (c *Client) Session() *session.Store {
	return c.session
}
