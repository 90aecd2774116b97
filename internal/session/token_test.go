// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signToken creates an HS256 token for tests. The secret is irrelevant to the
// package under test, which never verifies signatures.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	tok := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})

	got, err := TokenExpiry(tok)
	if err != nil {
		t.Fatalf("TokenExpiry: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("expiry = %v, want %v", got, exp)
	}
}

func TestTokenExpiryMissingClaim(t *testing.T) {
	t.Parallel()

	tok := signToken(t, jwt.MapClaims{"sub": "user-1"})
	if _, err := TokenExpiry(tok); err == nil {
		t.Error("expected error for token without exp claim")
	}
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		token    string
		expected bool
	}{
		{
			name: "future expiry",
			token: signToken(t, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			expected: false,
		},
		{
			name: "past expiry",
			token: signToken(t, jwt.MapClaims{
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			expected: true,
		},
		{
			name:     "malformed token",
			token:    "not.a.jwt",
			expected: true,
		},
		{
			name:     "empty token",
			token:    "",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TokenExpired(tt.token); got != tt.expected {
				t.Errorf("TokenExpired() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTokenSubject(t *testing.T) {
	t.Parallel()

	tok := signToken(t, jwt.MapClaims{"sub": "user-42", "exp": time.Now().Add(time.Hour).Unix()})
	if got := TokenSubject(tok); got != "user-42" {
		t.Errorf("TokenSubject = %q, want user-42", got)
	}
	if got := TokenSubject("garbage"); got != "" {
		t.Errorf("TokenSubject on garbage = %q, want empty", got)
	}
}
