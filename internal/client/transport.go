// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/metrics"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/notify"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxResponseBodySize bounds successful response reads. API responses are
// JSON; anything larger than this is a backend fault, not a payload.
const maxResponseBodySize = 16 << 20 // 16MB

// request is the tagged wrapper for one logical API request.
//
// The retried flag is the one-shot 401 marker: it is set by the refresh
// coordinator before the retry, so a request whose retry also fails with 401
// is never refreshed again. The flag lives here, on the wrapper, not on any
// shared object.
type request struct {
	method   string
	path     string
	query    url.Values
	body     interface{} // JSON-encoded when non-nil and rawBody is nil
	rawBody  []byte      // pre-encoded body (multipart uploads)
	bodyType string      // Content-Type for rawBody

	// out receives the decoded response body when non-nil.
	out interface{}

	// resource labels metrics; cacheable marks idempotent GETs for the
	// response cache; skipAuth suppresses the bearer header (login,
	// register, refresh).
	resource  string
	cacheable bool
	skipAuth  bool

	retried bool
}

// httpResult is a fully-read HTTP response. Responses are drained inside the
// circuit breaker so that 5xx bodies are available for error envelopes even
// when the breaker records the failure.
type httpResult struct {
	status int
	header http.Header
	body   []byte
}

// do executes one logical request: validate, send, absorb 401 via the refresh
// coordinator, map the error taxonomy, decode the response.
func (c *Client) do(ctx context.Context, req *request) error {
	if req.cacheable && c.cache != nil && req.method == http.MethodGet {
		if body, ok := c.cache.Get(c.cacheKey(req)); ok {
			metrics.CacheHits.Inc()
			return decodeBody(body, req.out)
		}
		metrics.CacheMisses.Inc()
	}

	res, err := c.send(ctx, req)
	if err != nil {
		return err
	}

	// Authentication expiry is absorbed here: exactly one refresh however
	// many requests hit 401 concurrently, then a single retry per request.
	if res.status == http.StatusUnauthorized && !req.skipAuth {
		if req.retried {
			// A rotated token was already applied and rejected again.
			// Give up instead of looping.
			return &APIError{StatusCode: res.status, Message: "access token rejected after refresh"}
		}
		req.retried = true

		if _, err := c.refreshAccessToken(ctx); err != nil {
			return err
		}

		res, err = c.send(ctx, req)
		if err != nil {
			return err
		}
	}

	if res.status < 200 || res.status > 299 {
		return c.apiError(req, res)
	}

	if req.cacheable && c.cache != nil && req.method == http.MethodGet {
		c.cache.Add(c.cacheKey(req), res.body)
	}

	return decodeBody(res.body, req.out)
}

// send performs the HTTP exchange with rate limiting, breaker protection and
// HTTP 429 backoff. The request body is re-sent verbatim on each attempt.
func (c *Client) send(ctx context.Context, req *request) (*httpResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	var lastResult *httpResult
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		res, err := c.attempt(ctx, req, body, contentType)
		if err != nil {
			return nil, err
		}

		if res.status != http.StatusTooManyRequests {
			return res, nil
		}
		lastResult = res

		if attempt == c.maxRetries {
			break
		}

		// Exponential backoff: 1s, 2s, 4s, ... honoring Retry-After.
		// Only the integer-seconds header form is used; HTTP-date values
		// fall through to the computed backoff.
		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := res.header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("rate limit exceeded after %d retries (HTTP 429): %w",
		c.maxRetries, c.apiError(req, lastResult))
}

// attempt performs a single HTTP round trip inside the circuit breaker.
// The bearer token is read from the session store immediately before sending;
// a token rotated mid-flight self-heals via the 401 path.
func (c *Client) attempt(ctx context.Context, req *request, body []byte, contentType string) (*httpResult, error) {
	started := time.Now()

	exec := func() (*httpResult, error) {
		hreq, err := c.buildRequest(ctx, req, body, contentType)
		if err != nil {
			return nil, err
		}

		resp, err := c.http.Do(hreq)
		if err != nil {
			return nil, fmt.Errorf("http request failed: %w", err)
		}
		defer resp.Body.Close()

		limit := int64(maxResponseBodySize)
		if resp.StatusCode >= 400 {
			limit = maxErrorBodySize
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		res := &httpResult{status: resp.StatusCode, header: resp.Header, body: data}
		if resp.StatusCode >= 500 {
			// Count server faults against the breaker while keeping the
			// body for the error envelope.
			return res, fmt.Errorf("server fault: HTTP %d", resp.StatusCode)
		}
		return res, nil
	}

	var res *httpResult
	var err error
	if c.breaker != nil {
		res, err = c.breaker.Execute(exec)
	} else {
		res, err = exec()
	}

	if res != nil {
		metrics.ObserveRequest(req.method, req.resource, res.status, time.Since(started).Seconds())
	}

	// A 5xx result is a response, not a transport failure; the taxonomy
	// mapping handles it. Anything without a result is a real error
	// (transport failure or breaker open).
	if res == nil && err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	return res, nil
}

// buildRequest constructs the http.Request for one attempt.
func (c *Client) buildRequest(ctx context.Context, req *request, body []byte, contentType string) (*http.Request, error) {
	reqURL := c.baseURL + req.path
	if len(req.query) > 0 {
		reqURL += "?" + req.query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set("User-Agent", userAgent)
	hreq.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		hreq.Header.Set("Content-Type", contentType)
	}
	if !req.skipAuth {
		if token := c.session.AccessToken(); token != "" {
			hreq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return hreq, nil
}

// apiError maps a non-2xx result to an *APIError, emitting the user-visible
// notification for terminal categories (403, 404, 5xx).
func (c *Client) apiError(req *request, res *httpResult) error {
	apiErr := &APIError{StatusCode: res.status}

	var envelope models.ErrorEnvelope
	if len(res.body) > 0 {
		if err := json.Unmarshal(res.body, &envelope); err == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
	}
	apiErr.RequestID = res.header.Get("X-Request-ID")

	switch {
	case res.status == http.StatusForbidden:
		c.notifier.Notify(notify.LevelError, "access denied: "+userMessage(apiErr))
	case res.status == http.StatusNotFound:
		c.notifier.Notify(notify.LevelWarn, "not found: "+userMessage(apiErr))
	case res.status >= 500:
		c.notifier.Notify(notify.LevelError, "server error: "+userMessage(apiErr))
	}

	logging.Debug().
		Int("status", res.status).
		Str("method", req.method).
		Str("path", req.path).
		Str("code", apiErr.Code).
		Msg("api error")

	return apiErr
}

// userMessage picks the most useful text for a notification.
func userMessage(e *APIError) string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// cacheKey identifies a GET response in the cache: path plus encoded query.
func (c *Client) cacheKey(req *request) string {
	if len(req.query) == 0 {
		return req.path
	}
	return req.path + "?" + req.query.Encode()
}

// invalidate drops cached responses under a path prefix after a mutation.
func (c *Client) invalidate(prefix string) {
	if c.cache != nil {
		c.cache.RemovePrefix(prefix)
	}
}

// encodeBody serializes the request body once per logical request so retries
// resend identical bytes.
func encodeBody(req *request) ([]byte, string, error) {
	if req.rawBody != nil {
		return req.rawBody, req.bodyType, nil
	}
	if req.body == nil {
		return nil, "", nil
	}
	data, err := json.Marshal(req.body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode request body: %w", err)
	}
	return data, "application/json", nil
}

// decodeBody unmarshals a response body into out, when requested.
func decodeBody(body []byte, out interface{}) error {
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
