// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package metrics provides Prometheus instrumentation for the Groundwatch
// client: API request throughput and latency, token refresh outcomes,
// response cache efficiency, circuit breaker state, and the live event
// stream. In watch mode the collectors are exposed on an optional debug
// listener (metrics.addr).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API request metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundwatch_api_requests_total",
			Help: "Total number of API requests issued",
		},
		[]string{"method", "resource", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "groundwatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "resource"},
	)

	// Token refresh metrics
	RefreshAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groundwatch_token_refresh_attempts_total",
			Help: "Total number of token refresh attempts",
		},
	)

	RefreshOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundwatch_token_refresh_outcomes_total",
			Help: "Token refresh outcomes by result",
		},
		[]string{"outcome"}, // "success", "failure", "no_refresh_token"
	)

	RefreshWaiters = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "groundwatch_token_refresh_waiters",
			Help:    "Number of requests parked behind each token refresh",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		},
	)

	// Response cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groundwatch_response_cache_hits_total",
			Help: "Total number of GET response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groundwatch_response_cache_misses_total",
			Help: "Total number of GET response cache misses",
		},
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groundwatch_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundwatch_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// Event stream metrics
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groundwatch_stream_events_total",
			Help: "Total threat events received on the live stream",
		},
		[]string{"type"},
	)

	StreamReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groundwatch_stream_reconnects_total",
			Help: "Total websocket reconnect attempts",
		},
	)
)

// ObserveRequest records a completed API request.
func ObserveRequest(method, resource string, statusCode int, seconds float64) {
	APIRequestsTotal.WithLabelValues(method, resource, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, resource).Observe(seconds)
}
