// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

/*
refresh.go - Token-Refresh Coordinator

Serializes concurrent token refreshes: however many requests fail with 401
while the access token is stale, exactly one call reaches the refresh
endpoint. Every other caller parks on a waiter channel and resumes when the
refresh settles.

State machine:

	Idle        --401--> Refreshing   (caller performs the refresh)
	Refreshing  --401--> parked       (caller waits on the queue)
	Refreshing  --ok---> Idle         (session rotated; waiters woken with new token)
	Refreshing  --err--> Idle         (session cleared; waiters woken with the error)

Invariant: at most one refresh is ever in flight. The refreshing flag and
waiter queue are guarded by refreshMu; the waiter queue is drained exactly
once per refresh, on settlement.

Failure semantics: a rejected refresh token clears the session (global
logout), notifies the user once, and every parked caller receives the same
ErrSessionExpired, not its request's original 401. A missing refresh token
short-circuits to the same outcome with zero network calls.
*/

//nolint:staticcheck // File documentation, not package doc
package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/metrics"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/notify"
)

// refreshResult is delivered to each parked waiter when a refresh settles.
type refreshResult struct {
	token string
	err   error
}

// refreshAccessToken returns a fresh access token, coordinating with any
// refresh already in flight. The caller retries its original request with
// the returned token.
func (c *Client) refreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	if c.refreshing {
		// A refresh is in flight; park until it settles.
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.refreshMu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			// The waiter channel is buffered, so the coordinator's
			// drain never blocks on an abandoned waiter.
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.refreshMu.Unlock()

	token, err := c.performRefresh(ctx)

	// Settle: leave the Refreshing state and drain the queue exactly once.
	c.refreshMu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.refreshMu.Unlock()

	metrics.RefreshWaiters.Observe(float64(len(waiters)))
	for _, ch := range waiters {
		ch <- refreshResult{token: token, err: err}
	}

	return token, err
}

// performRefresh executes the actual refresh exchange. Exactly one goroutine
// runs this per refresh cycle.
func (c *Client) performRefresh(ctx context.Context) (string, error) {
	metrics.RefreshAttempts.Inc()

	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		// No refresh token: fail immediately, no network call.
		metrics.RefreshOutcomes.WithLabelValues("no_refresh_token").Inc()
		c.expireSession("not logged in, please run: groundwatch login")
		return "", ErrNotLoggedIn
	}

	req := &request{
		method:   http.MethodPost,
		path:     "/api/v1/auth/refresh",
		resource: "auth",
		body:     models.RefreshRequest{RefreshToken: refreshToken},
		skipAuth: true,
	}

	res, err := c.send(ctx, req)
	if err != nil {
		// Any failed refresh ends the session, transport errors
		// included: every parked caller gets the same outcome.
		metrics.RefreshOutcomes.WithLabelValues("failure").Inc()
		c.expireSession("session expired, please log in again")
		return "", fmt.Errorf("%w: token refresh failed: %w", ErrSessionExpired, err)
	}

	if res.status < 200 || res.status > 299 {
		// The backend rejected the refresh token: global logout.
		metrics.RefreshOutcomes.WithLabelValues("failure").Inc()
		c.expireSession("session expired, please log in again")
		return "", fmt.Errorf("%w: refresh rejected with HTTP %d", ErrSessionExpired, res.status)
	}

	var payload models.RefreshResponse
	if err := json.Unmarshal(res.body, &payload); err != nil {
		metrics.RefreshOutcomes.WithLabelValues("failure").Inc()
		c.expireSession("session expired, please log in again")
		return "", fmt.Errorf("%w: malformed refresh response", ErrSessionExpired)
	}
	if payload.AccessToken == "" {
		metrics.RefreshOutcomes.WithLabelValues("failure").Inc()
		c.expireSession("session expired, please log in again")
		return "", fmt.Errorf("%w: refresh response missing access token", ErrSessionExpired)
	}

	if err := c.session.Rotate(payload.AccessToken, payload.RefreshToken); err != nil {
		metrics.RefreshOutcomes.WithLabelValues("failure").Inc()
		return "", fmt.Errorf("failed to store rotated token: %w", err)
	}

	metrics.RefreshOutcomes.WithLabelValues("success").Inc()
	logging.Debug().Msg("access token refreshed")
	return payload.AccessToken, nil
}

// expireSession clears all session state and notifies the user once. This is
// the CLI analog of the dashboard's redirect to the login page.
func (c *Client) expireSession(message string) {
	if err := c.session.Clear(); err != nil {
		logging.Err(err).Msg("failed to clear session")
	}
	if c.cache != nil {
		c.cache.Purge()
	}
	c.notifier.Notify(notify.LevelError, message)
}
