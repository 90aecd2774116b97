// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package models

// Collection is the paginated list envelope used by every list endpoint.
type Collection[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ErrorEnvelope is the backend's JSON error body. Message is optional and
// human-readable; Code is a stable machine-readable identifier.
type ErrorEnvelope struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
