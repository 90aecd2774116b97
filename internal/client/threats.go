// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/groundwatch/groundwatch/internal/models"
)

const threatsPrefix = "/api/v1/threats"

// ListThreats returns a page of detected threats matching the filter.
func (c *Client) ListThreats(ctx context.Context, filter models.ThreatFilter) (*models.Collection[models.Threat], error) {
	query := url.Values{}
	if filter.Severity != "" {
		query.Set("severity", filter.Severity)
	}
	if filter.Class != "" {
		query.Set("class", filter.Class)
	}
	if filter.Acknowledged != nil {
		query.Set("acknowledged", strconv.FormatBool(*filter.Acknowledged))
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var page models.Collection[models.Threat]
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      threatsPrefix,
		query:     query,
		resource:  "threats",
		out:       &page,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetThreat fetches a single threat by ID.
func (c *Client) GetThreat(ctx context.Context, id string) (*models.Threat, error) {
	var threat models.Threat
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      threatsPrefix + "/" + url.PathEscape(id),
		resource:  "threats",
		out:       &threat,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &threat, nil
}

// AcknowledgeThreat marks a threat as reviewed by the current operator.
func (c *Client) AcknowledgeThreat(ctx context.Context, id string) (*models.Threat, error) {
	return c.threatAction(ctx, id, "acknowledge")
}

// VerifyThreat marks a threat as confirmed by human review.
func (c *Client) VerifyThreat(ctx context.Context, id string) (*models.Threat, error) {
	return c.threatAction(ctx, id, "verify")
}

func (c *Client) threatAction(ctx context.Context, id, action string) (*models.Threat, error) {
	var threat models.Threat
	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     threatsPrefix + "/" + url.PathEscape(id) + "/" + action,
		resource: "threats",
		out:      &threat,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(threatsPrefix)
	return &threat, nil
}
