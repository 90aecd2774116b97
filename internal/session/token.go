// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the expiry claim from an access token without
// verifying the signature. The client cannot verify signatures (the signing
// secret is backend-owned); expiry here is a hint for display and proactive
// refresh only. Authorization decisions always belong to the backend, which
// answers 401 for anything invalid.
func TokenExpiry(tokenString string) (time.Time, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read expiry claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("token has no expiry claim")
	}

	return exp.Time, nil
}

// TokenExpired reports whether the token's expiry claim is in the past.
// Malformed tokens count as expired; the backend would reject them anyway.
func TokenExpired(tokenString string) bool {
	exp, err := TokenExpiry(tokenString)
	if err != nil {
		return true
	}
	return time.Now().After(exp)
}

// TokenSubject extracts the subject (user ID) claim without verification.
// Returns empty string when the claim is absent or the token is malformed.
func TokenSubject(tokenString string) string {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return ""
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
