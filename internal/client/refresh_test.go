// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/groundwatch/groundwatch/internal/models"
)

// refreshBackend is a fake backend whose protected endpoint rejects the
// stale access token and accepts the rotated one. It counts refresh calls.
type refreshBackend struct {
	staleToken   string
	freshToken   string
	refreshCalls atomic.Int64
	refreshDelay time.Duration
	rejectAll    bool // protected endpoint 401s every token
	refreshFail  int  // non-zero: refresh endpoint returns this status
	rotated      string
}

func (b *refreshBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		if b.refreshFail != 0 {
			w.WriteHeader(b.refreshFail)
			_, _ = w.Write([]byte(`{"code":"invalid_token","message":"refresh token revoked"}`))
			return
		}
		resp := models.RefreshResponse{AccessToken: b.freshToken, RefreshToken: b.rotated}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("GET /api/v1/threats", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if b.rejectAll || token != b.freshToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Collection[models.Threat]{Items: []models.Threat{}})
	})

	return mux
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken:   "stale-token",
		freshToken:   "fresh-token",
		refreshDelay: 200 * time.Millisecond,
	}
	c, store, _ := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListThreats(context.Background(), models.ThreatFilter{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: ListThreats() error = %v", i, err)
		}
	}
	if got := backend.refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if got := store.AccessToken(); got != backend.freshToken {
		t.Errorf("stored access token = %q, want %q", got, backend.freshToken)
	}
}

func TestRefreshRotatesBothTokens(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken: "stale-token",
		freshToken: "fresh-token",
		rotated:    "new-refresh-token",
	}
	c, store, _ := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "old-refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if _, err := c.ListThreats(context.Background(), models.ThreatFilter{}); err != nil {
		t.Fatalf("ListThreats() error = %v", err)
	}

	if got := store.RefreshToken(); got != "new-refresh-token" {
		t.Errorf("refresh token = %q, want rotated token", got)
	}
}

func TestRefreshKeepsRefreshTokenWhenOmitted(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken: "stale-token",
		freshToken: "fresh-token",
		// rotated left empty: the backend did not rotate the refresh token
	}
	c, store, _ := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "old-refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	if _, err := c.ListThreats(context.Background(), models.ThreatFilter{}); err != nil {
		t.Fatalf("ListThreats() error = %v", err)
	}

	if got := store.RefreshToken(); got != "old-refresh-token" {
		t.Errorf("refresh token = %q, want original preserved", got)
	}
}

func TestRejectedRefreshLogsOutEveryone(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken:   "stale-token",
		freshToken:   "fresh-token",
		refreshFail:  http.StatusUnauthorized,
		refreshDelay: 200 * time.Millisecond,
	}
	c, store, notifier := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "revoked-refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListThreats(context.Background(), models.ThreatFilter{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrSessionExpired) {
			t.Errorf("worker %d: error = %v, want ErrSessionExpired", i, err)
		}
	}
	if store.Authenticated() {
		t.Error("session still authenticated after rejected refresh")
	}
	if got := backend.refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}

	messages := notifier.Messages()
	if len(messages) != 1 {
		t.Fatalf("notifications = %d (%v), want exactly 1", len(messages), messages)
	}
	if !strings.Contains(messages[0], "session expired") {
		t.Errorf("notification = %q, want session-expired message", messages[0])
	}
}

func TestMissingRefreshTokenFailsWithoutNetwork(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken: "stale-token",
		freshToken: "fresh-token",
	}
	c, store, notifier := newTestClient(t, backend.handler(), nil)
	// Access token only: no refresh token was ever stored.
	if err := store.Begin(backend.staleToken, ""); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	_, err := c.ListThreats(context.Background(), models.ThreatFilter{})
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("error = %v, want ErrNotLoggedIn", err)
	}
	if got := backend.refreshCalls.Load(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
	if store.Authenticated() {
		t.Error("session still authenticated")
	}

	messages := notifier.Messages()
	if len(messages) != 1 || !strings.Contains(messages[0], "not logged in") {
		t.Errorf("notifications = %v, want single not-logged-in message", messages)
	}
}

func TestRetriedRequestNeverRefreshesTwice(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken: "stale-token",
		freshToken: "fresh-token",
		rejectAll:  true, // even the rotated token is rejected
	}
	c, store, _ := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	_, err := c.ListThreats(context.Background(), models.ThreatFilter{})
	if err == nil {
		t.Fatal("ListThreats() error = nil, want failure after retried 401")
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
	if got := backend.refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}
}

func TestParkedWaiterHonorsContextCancel(t *testing.T) {
	t.Parallel()

	backend := &refreshBackend{
		staleToken:   "stale-token",
		freshToken:   "fresh-token",
		refreshDelay: 500 * time.Millisecond,
	}
	c, store, _ := newTestClient(t, backend.handler(), nil)
	if err := store.Begin(backend.staleToken, "refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// First caller owns the refresh.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = c.ListThreats(context.Background(), models.ThreatFilter{})
	}()

	// Give the owner time to enter the Refreshing state.
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.refreshAccessToken(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("parked waiter error = %v, want context.Canceled", err)
	}

	wg.Wait()
}
