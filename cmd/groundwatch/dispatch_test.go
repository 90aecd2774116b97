// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/groundwatch/groundwatch/internal/client"
	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/session"
)

// TestSetSettingsOverlaysCurrentValues covers the read-then-overlay behavior
// of set-settings: flags the user did not pass must keep the values the
// server currently holds, not the flag defaults.
func TestSetSettingsOverlaysCurrentValues(t *testing.T) {
	current := models.Settings{
		NotifyEmail:       true,
		NotifyCritical:    false,
		DefaultRegion:     "eastern-corridor",
		MapStyle:          "satellite",
		MapOverlay:        "grid",
		SeverityThreshold: "medium",
	}

	var got models.UpdateSettingsRequest
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/account/settings", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(current)
	})
	mux.HandleFunc("PUT /api/v1/account/settings", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode settings update: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.Settings{
			NotifyEmail:       got.NotifyEmail,
			NotifyCritical:    got.NotifyCritical,
			DefaultRegion:     got.DefaultRegion,
			MapStyle:          got.MapStyle,
			MapOverlay:        got.MapOverlay,
			SeverityThreshold: got.SeverityThreshold,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Begin("access-token", "refresh-token"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	api := client.New(&config.APIConfig{
		URL:            srv.URL,
		Timeout:        5 * time.Second,
		MaxRetries:     1,
		RetryBaseDelay: time.Millisecond,
	}, store)

	err = dispatch(context.Background(), api, store, "set-settings", []string{"-region", "western-border"})
	if err != nil {
		t.Fatalf("dispatch(set-settings) error = %v", err)
	}

	if got.DefaultRegion != "western-border" {
		t.Errorf("default_region = %q, want western-border", got.DefaultRegion)
	}
	if !got.NotifyEmail {
		t.Error("notify_email was reset; unpassed flags must keep server values")
	}
	if got.NotifyCritical {
		t.Error("notify_critical took the flag default over the server value")
	}
	if got.MapStyle != "satellite" || got.MapOverlay != "grid" {
		t.Errorf("map settings = %q/%q, want satellite/grid", got.MapStyle, got.MapOverlay)
	}
	if got.SeverityThreshold != "medium" {
		t.Errorf("severity_threshold = %q, want medium", got.SeverityThreshold)
	}
}
