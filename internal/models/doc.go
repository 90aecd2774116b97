// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package models defines the Groundwatch data model: users and sessions,
// satellite imagery, analyses, detected threats, and account settings.
//
// All resource types are read-mostly projections of backend resources; the
// server-assigned ID is the identity and the client never owns authoritative
// state for them. Request types carry go-playground/validator tags and are
// validated before any network call.
package models
