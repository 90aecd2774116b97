// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package models

import "time"

// Threat severity levels, lowest first.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// severityRank orders severities for threshold filtering.
var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// SeverityAtLeast reports whether severity s is at or above the threshold.
// Unknown severities never pass the threshold.
func SeverityAtLeast(s, threshold string) bool {
	sr, ok := severityRank[s]
	if !ok {
		return false
	}
	tr, ok := severityRank[threshold]
	if !ok {
		return true
	}
	return sr >= tr
}

// BoundingBox locates a detection within the source image, in pixel
// coordinates of the full-resolution capture.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Threat is a single detection produced by an analysis run.
type Threat struct {
	ID           string      `json:"id"`
	AnalysisID   string      `json:"analysis_id"`
	ImageID      string      `json:"image_id"`
	Class        string      `json:"class"`
	Severity     string      `json:"severity"`
	Confidence   float64     `json:"confidence"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	BoundingBox  BoundingBox `json:"bounding_box"`
	Acknowledged bool        `json:"acknowledged"`
	Verified     bool        `json:"verified"`
	DetectedAt   time.Time   `json:"detected_at"`
}

// ThreatFilter narrows threat listings.
type ThreatFilter struct {
	Severity     string
	Class        string
	Acknowledged *bool
	Page         int
	Limit        int
}

// Stream event types.
const (
	EventThreatDetected = "threat.detected"
	EventThreatUpdated  = "threat.updated"
)

// ThreatEvent is a live detection pushed over the event stream.
type ThreatEvent struct {
	Type   string `json:"type"`
	Threat Threat `json:"threat"`
}
