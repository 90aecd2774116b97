// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package watch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/thejerf/suture/v4"

	"github.com/groundwatch/groundwatch/internal/client"
	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/session"
)

// syncBuffer is a bytes.Buffer safe for use as service output in tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newWatchClient(t *testing.T, handler http.Handler, authenticated bool) *client.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if authenticated {
		if err := store.Begin("access", "refresh"); err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
	}

	cfg := &config.APIConfig{URL: srv.URL, Timeout: 5 * time.Second}
	return client.New(cfg, store)
}

func TestPollerRefreshesImmediately(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.DashboardStats{
			TotalImages:   12,
			ActiveThreats: 3,
			ThreatsBySeverity: map[string]int{
				models.SeverityCritical: 1,
				models.SeverityHigh:     2,
			},
		})
	})

	api := newWatchClient(t, handler, true)
	out := &syncBuffer{}
	poller := newPollerService(api, time.Hour, out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Serve(ctx) }()

	deadline := time.After(5 * time.Second)
	for !strings.Contains(out.String(), "[stats]") {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for stats output")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if got := out.String(); !strings.Contains(got, "images=12") || !strings.Contains(got, "critical=1") {
		t.Errorf("stats line = %q, want image and severity counts", got)
	}
}

func TestPollerTerminatesTreeWhenLoggedOut(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	// No session at all: the 401 path fails with ErrNotLoggedIn, which must
	// stop the whole tree instead of restarting the poller forever.
	api := newWatchClient(t, handler, false)
	poller := newPollerService(api, time.Hour, &syncBuffer{})

	err := poller.Serve(context.Background())
	if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
		t.Errorf("Serve() error = %v, want ErrTerminateSupervisorTree", err)
	}
	if !errors.Is(err, client.ErrNotLoggedIn) {
		t.Errorf("Serve() error = %v, want ErrNotLoggedIn in chain", err)
	}
}

func TestStreamServiceOutput(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	svc := &streamService{out: out}

	svc.printDetected(models.Threat{
		Class:      "vehicle_convoy",
		Severity:   models.SeverityCritical,
		Confidence: 0.91,
		Latitude:   48.5012,
		Longitude:  35.1234,
	})
	svc.printUpdated(models.Threat{
		Class:        "new_structure",
		Severity:     models.SeverityLow,
		Acknowledged: true,
	})

	got := out.String()
	if !strings.Contains(got, "NEW CRITICAL") || !strings.Contains(got, "vehicle_convoy") {
		t.Errorf("detected line missing fields: %q", got)
	}
	if !strings.Contains(got, "UPD LOW") || !strings.Contains(got, "acknowledged") {
		t.Errorf("updated line missing fields: %q", got)
	}
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	svc := &httpService{
		server: &http.Server{
			Addr:              "127.0.0.1:0",
			ReadHeaderTimeout: time.Second,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not shut down")
	}
}
