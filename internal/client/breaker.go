// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/metrics"
)

const (
	breakerInterval = time.Minute
	breakerTimeout  = 2 * time.Minute
)

// newAPIBreaker builds the circuit breaker wrapping every backend request.
//
// The breaker prevents hammering a backend that is down or overloaded:
// transport failures and 5xx responses count as failures; 4xx responses do
// not (the request was delivered and answered). Configuration:
//   - Max 3 concurrent probes in half-open state
//   - 1 minute measurement window in closed state
//   - 2 minute open period before probing again
//   - Opens at >= 60% failure rate with at least 10 requests observed
func newAPIBreaker() *gobreaker.CircuitBreaker[*httpResult] {
	metrics.BreakerState.Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[*httpResult](gobreaker.Settings{
		Name:        "groundwatch-api",
		MaxRequests: 3,
		Interval:    breakerInterval,
		Timeout:     breakerTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("circuit breaker opening")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("circuit breaker state change")
			metrics.BreakerState.Set(breakerStateFloat(to))
			metrics.BreakerTransitions.WithLabelValues(fromStr, toStr).Inc()
		},
	})
}

// breakerStateFloat converts breaker state to the gauge encoding.
func breakerStateFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// breakerStateString converts breaker state to a label value.
func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
