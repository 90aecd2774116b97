// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

/*
Package watch implements watch mode: a long-running terminal session that
tails the live threat stream and periodically refreshes dashboard stats.

The moving parts run under a suture supervisor so a crashed stream
subscriber or poller is restarted with backoff instead of killing the whole
session:

	groundwatch-watch (root)
	├── threat-stream     live WebSocket subscriber
	├── stats-poller      periodic dashboard stats refresh
	└── metrics-listener  optional Prometheus /metrics endpoint
*/
package watch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/groundwatch/groundwatch/internal/client"
	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/stream"
)

// Failure parameters mirror suture's documented defaults.
const (
	failureThreshold = 5.0
	failureDecay     = 30.0
	failureBackoff   = 15 * time.Second
	shutdownTimeout  = 10 * time.Second
)

// Runner owns the supervised watch-mode session.
type Runner struct {
	root *suture.Supervisor
	out  io.Writer
}

// NewRunner assembles the watch-mode supervision tree. Output defaults to
// stdout when out is nil.
func NewRunner(api *client.Client, cfg *config.Config, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}

	handler := &sutureslog.Handler{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
	root := suture.New("groundwatch-watch", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: failureThreshold,
		FailureDecay:     failureDecay,
		FailureBackoff:   failureBackoff,
		Timeout:          shutdownTimeout,
	})

	sub := stream.NewSubscriber(cfg.API.URL, api.Session(), cfg.Stream, cfg.Watch.MinSeverity)
	if cfg.Stream.Enabled {
		root.Add(newStreamService(sub, out))
	}
	root.Add(newPollerService(api, cfg.Watch.PollInterval, out))
	if cfg.Metrics.Enabled {
		root.Add(newMetricsService(cfg.Metrics.Addr))
	}

	return &Runner{root: root, out: out}
}

// Run blocks until ctx is canceled, supervising all watch-mode services.
func (r *Runner) Run(ctx context.Context) error {
	err := r.root.Serve(ctx)
	if err != nil && ctx.Err() != nil {
		// Cancellation is the normal way out of watch mode.
		return nil
	}
	return err
}

// newMetricsService exposes the Prometheus registry on a local debug
// listener, supervised like everything else.
func newMetricsService(addr string) *httpService {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &httpService{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}
