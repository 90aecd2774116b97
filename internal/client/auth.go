// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/validation"
)

// Login authenticates with username and password and establishes the session.
// The request is validated locally before any network call.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	var resp models.LoginResponse
	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     "/api/v1/auth/login",
		resource: "auth",
		body:     req,
		out:      &resp,
		skipAuth: true,
	})
	if err != nil {
		return nil, err
	}

	if err := c.session.Begin(resp.Tokens.AccessToken, resp.Tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logging.Info().Str("username", resp.User.Username).Msg("logged in")
	return &resp.User, nil
}

// Register creates a new operator account and establishes the session.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	var resp models.LoginResponse
	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     "/api/v1/auth/register",
		resource: "auth",
		body:     req,
		out:      &resp,
		skipAuth: true,
	})
	if err != nil {
		return nil, err
	}

	if err := c.session.Begin(resp.Tokens.AccessToken, resp.Tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	logging.Info().Str("username", resp.User.Username).Msg("account registered")
	return &resp.User, nil
}

// Logout revokes the refresh token server-side (best effort) and clears the
// local session. Calling Logout when already logged out is a no-op.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.session.RefreshToken()
	if refreshToken != "" {
		// Server-side revocation is best effort: a dead backend must not
		// keep the user logged in locally.
		err := c.do(ctx, &request{
			method:   http.MethodPost,
			path:     "/api/v1/auth/logout",
			resource: "auth",
			body:     models.RefreshRequest{RefreshToken: refreshToken},
		})
		if err != nil {
			logging.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
		}
	}

	if c.cache != nil {
		c.cache.Purge()
	}
	return c.session.Clear()
}

// CurrentUser fetches the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := c.do(ctx, &request{
		method:   http.MethodGet,
		path:     "/api/v1/auth/me",
		resource: "auth",
		out:      &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
