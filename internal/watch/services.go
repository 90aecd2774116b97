// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/groundwatch/groundwatch/internal/client"
	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/stream"
)

// streamService adapts the WebSocket subscriber to suture's Serve pattern:
// connect, print events until canceled, tear down. A failed connection is
// returned to the supervisor, which restarts the service with backoff.
type streamService struct {
	sub *stream.Subscriber
	out io.Writer
}

func newStreamService(sub *stream.Subscriber, out io.Writer) *streamService {
	svc := &streamService{sub: sub, out: out}
	sub.SetCallbacks(svc.printDetected, svc.printUpdated)
	return svc
}

// Serve implements suture.Service.
func (s *streamService) Serve(ctx context.Context) error {
	if err := s.sub.Connect(ctx); err != nil {
		return fmt.Errorf("threat stream: %w", err)
	}
	<-ctx.Done()
	s.sub.Close()
	return ctx.Err()
}

func (s *streamService) printDetected(th models.Threat) {
	fmt.Fprintf(s.out, "%s  NEW %-8s %-16s  conf %.2f  (%.4f, %.4f)\n",
		time.Now().Format("15:04:05"), strings.ToUpper(th.Severity), th.Class,
		th.Confidence, th.Latitude, th.Longitude)
}

func (s *streamService) printUpdated(th models.Threat) {
	state := "updated"
	switch {
	case th.Verified:
		state = "verified"
	case th.Acknowledged:
		state = "acknowledged"
	}
	fmt.Fprintf(s.out, "%s  UPD %-8s %-16s  %s\n",
		time.Now().Format("15:04:05"), strings.ToUpper(th.Severity), th.Class, state)
}

// pollerService refreshes dashboard stats on a fixed interval. The first
// refresh happens immediately so watch mode starts with a populated header.
type pollerService struct {
	api      *client.Client
	interval time.Duration
	out      io.Writer
}

func newPollerService(api *client.Client, interval time.Duration, out io.Writer) *pollerService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &pollerService{api: api, interval: interval, out: out}
}

// Serve implements suture.Service.
func (p *pollerService) Serve(ctx context.Context) error {
	if err := p.refresh(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (p *pollerService) refresh(ctx context.Context) error {
	stats, err := p.api.DashboardStats(ctx)
	if err != nil {
		// An expired session is terminal for watch mode: restarting
		// the poller cannot fix it.
		if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, client.ErrNotLoggedIn) {
			return fmt.Errorf("%w: %w", suture.ErrTerminateSupervisorTree, err)
		}
		logging.Warn().Err(err).Msg("stats refresh failed")
		return fmt.Errorf("stats poller: %w", err)
	}

	fmt.Fprintf(p.out, "%s  [stats] images=%d pending=%d active=%d critical=%d high=%d\n",
		time.Now().Format("15:04:05"),
		stats.TotalImages, stats.PendingAnalyses, stats.ActiveThreats,
		stats.ThreatsBySeverity[models.SeverityCritical],
		stats.ThreatsBySeverity[models.SeverityHigh])
	return nil
}

// httpService runs an http.Server under supervision, translating the
// blocking ListenAndServe into suture's context-aware lifecycle.
type httpService struct {
	server *http.Server
}

// Serve implements suture.Service.
func (h *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics listener failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics listener shutdown: %w", err)
		}
		return ctx.Err()
	}
}
