// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"context"
	"net/http"

	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/validation"
)

const (
	profilePath  = "/api/v1/account/profile"
	settingsPath = "/api/v1/account/settings"
	statsPath    = "/api/v1/dashboard/stats"
)

// Profile fetches the current operator's profile.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      profilePath,
		resource:  "account",
		out:       &user,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates mutable profile fields and returns the new profile.
func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	var user models.User
	err := c.do(ctx, &request{
		method:   http.MethodPut,
		path:     profilePath,
		resource: "account",
		body:     req,
		out:      &user,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(profilePath)
	return &user, nil
}

// Settings fetches the current operator's notification settings.
func (c *Client) Settings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      settingsPath,
		resource:  "account",
		out:       &settings,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings updates notification settings and returns the result.
func (c *Client) UpdateSettings(ctx context.Context, req models.UpdateSettingsRequest) (*models.Settings, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	var settings models.Settings
	err := c.do(ctx, &request{
		method:   http.MethodPut,
		path:     settingsPath,
		resource: "account",
		body:     req,
		out:      &settings,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(settingsPath)
	return &settings, nil
}

// DashboardStats fetches aggregate counts for the dashboard overview.
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      statsPath,
		resource:  "dashboard",
		out:       &stats,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
