// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package models

import "time"

// User is the authenticated operator's profile. Fetched after login and
// replaced wholesale on profile update.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Rank      string    `json:"rank"`
	Unit      string    `json:"unit"`
	AvatarURL string    `json:"avatar_url"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenPair is the credential pair returned by login, register and refresh.
// The access token is short-lived and attached to every API request; the
// refresh token mints replacements via the refresh endpoint.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginRequest is the login form payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterRequest is the registration form payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"max=128"`
	Unit     string `json:"unit"      validate:"max=64"`
}

// LoginResponse is the payload of a successful login or register call.
type LoginResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// RefreshRequest is the body sent to the token refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse is the payload of a successful token refresh.
// The backend may rotate the refresh token; when RefreshToken is empty the
// previous refresh token remains valid.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// UpdateProfileRequest replaces the mutable profile attributes.
type UpdateProfileRequest struct {
	FullName  string `json:"full_name" validate:"max=128"`
	Rank      string `json:"rank"      validate:"max=64"`
	Unit      string `json:"unit"      validate:"max=64"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
}
