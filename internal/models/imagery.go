// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package models

import "time"

// Satellite image processing states.
const (
	ImageStatusPending    = "pending"
	ImageStatusProcessing = "processing"
	ImageStatusAnalyzed   = "analyzed"
	ImageStatusFailed     = "failed"
)

// SatelliteImage is an uploaded imagery capture awaiting or holding analysis
// results. Identity is the server-assigned ID.
type SatelliteImage struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Region       string    `json:"region"`
	Status       string    `json:"status"`
	SizeBytes    int64     `json:"size_bytes"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CapturedAt   time.Time `json:"captured_at"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ImageFilter narrows image listings. Zero values are omitted from the query.
type ImageFilter struct {
	Region string
	Status string
	Page   int
	Limit  int
}

// Analysis run states.
const (
	AnalysisStatusQueued    = "queued"
	AnalysisStatusRunning   = "running"
	AnalysisStatusCompleted = "completed"
	AnalysisStatusFailed    = "failed"
)

// Analysis is a server-side detection run over a single image.
type Analysis struct {
	ID          string     `json:"id"`
	ImageID     string     `json:"image_id"`
	Status      string     `json:"status"`
	Model       string     `json:"model"`
	ThreatCount int        `json:"threat_count"`
	Summary     string     `json:"summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AnalysisFilter narrows analysis listings.
type AnalysisFilter struct {
	ImageID string
	Status  string
	Page    int
	Limit   int
}
