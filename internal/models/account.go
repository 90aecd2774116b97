// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package models

// Settings holds the operator's account preferences. The map preference
// strings are opaque to the client; the backend owns their meaning.
type Settings struct {
	NotifyEmail       bool   `json:"notify_email"`
	NotifyCritical    bool   `json:"notify_critical"`
	DefaultRegion     string `json:"default_region"`
	MapStyle          string `json:"map_style"`
	MapOverlay        string `json:"map_overlay"`
	SeverityThreshold string `json:"severity_threshold"`
}

// UpdateSettingsRequest carries settings mutations. All fields are sent; the
// caller reads current settings first and modifies what changed.
type UpdateSettingsRequest struct {
	NotifyEmail       bool   `json:"notify_email"`
	NotifyCritical    bool   `json:"notify_critical"`
	DefaultRegion     string `json:"default_region"      validate:"max=64"`
	MapStyle          string `json:"map_style"           validate:"max=64"`
	MapOverlay        string `json:"map_overlay"         validate:"max=64"`
	SeverityThreshold string `json:"severity_threshold"  validate:"omitempty,oneof=low medium high critical"`
}

// DashboardStats backs the dashboard stat cards.
type DashboardStats struct {
	TotalImages       int            `json:"total_images"`
	PendingAnalyses   int            `json:"pending_analyses"`
	ActiveThreats     int            `json:"active_threats"`
	ThreatsBySeverity map[string]int `json:"threats_by_severity"`
}
