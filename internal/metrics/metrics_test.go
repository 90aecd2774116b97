// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "threats", "200"))

	ObserveRequest("GET", "threats", 200, 0.042)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "threats", "200"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestRefreshOutcomeLabels(t *testing.T) {
	// The three outcome labels used by the refresh coordinator must all be
	// valid label values.
	for _, outcome := range []string{"success", "failure", "no_refresh_token"} {
		RefreshOutcomes.WithLabelValues(outcome).Inc()
	}
	if v := testutil.ToFloat64(RefreshOutcomes.WithLabelValues("no_refresh_token")); v < 1 {
		t.Errorf("no_refresh_token outcome = %v, want >= 1", v)
	}
}
