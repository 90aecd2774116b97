// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the session lifecycle. Both mean the caller must log in
// again, with distinct messaging: ErrNotLoggedIn when no refresh token exists
// locally, ErrSessionExpired when the backend rejected the refresh token.
var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx backend response, carrying the decoded error envelope
// when the backend provided one.
//
// Taxonomy (mirrors how errors surface to the user):
//   - 401 never escapes as APIError from authenticated calls; the refresh
//     coordinator absorbs it or converts it to ErrSessionExpired.
//   - 403, 404 and 5xx are terminal: notified and returned unchanged.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
}

// AsAPIError unwraps err to an *APIError when one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsDenied reports whether err is an authorization denial (HTTP 403).
func IsDenied(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a not-found response (HTTP 404).
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsServerFault reports whether err is a backend fault (HTTP 5xx).
func IsServerFault(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode >= 500
}
