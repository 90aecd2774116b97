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

const analysesPrefix = "/api/v1/analyses"

// ListAnalyses returns a page of analysis runs matching the filter.
func (c *Client) ListAnalyses(ctx context.Context, filter models.AnalysisFilter) (*models.Collection[models.Analysis], error) {
	query := url.Values{}
	if filter.ImageID != "" {
		query.Set("image_id", filter.ImageID)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Page > 0 {
		query.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var page models.Collection[models.Analysis]
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      analysesPrefix,
		query:     query,
		resource:  "analyses",
		out:       &page,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetAnalysis fetches a single analysis run by ID.
func (c *Client) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      analysesPrefix + "/" + url.PathEscape(id),
		resource:  "analyses",
		out:       &analysis,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}
