// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/groundwatch/groundwatch/internal/models"
)

const imagesPrefix = "/api/v1/images"

// ListImages returns a page of satellite images matching the filter.
func (c *Client) ListImages(ctx context.Context, filter models.ImageFilter) (*models.Collection[models.SatelliteImage], error) {
	query := url.Values{}
	if filter.Region != "" {
		query.Set("region", filter.Region)
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

	var page models.Collection[models.SatelliteImage]
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      imagesPrefix,
		query:     query,
		resource:  "images",
		out:       &page,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetImage fetches a single satellite image by ID.
func (c *Client) GetImage(ctx context.Context, id string) (*models.SatelliteImage, error) {
	var img models.SatelliteImage
	err := c.do(ctx, &request{
		method:    http.MethodGet,
		path:      imagesPrefix + "/" + url.PathEscape(id),
		resource:  "images",
		out:       &img,
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// UploadImage uploads raw image bytes as a multipart form together with
// capture metadata. The returned record starts in the pending status.
func (c *Client) UploadImage(ctx context.Context, filename string, data io.Reader, region string) (*models.SatelliteImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if region != "" {
		if err := mw.WriteField("region", region); err != nil {
			return nil, fmt.Errorf("failed to build multipart form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	var img models.SatelliteImage
	err = c.do(ctx, &request{
		method:   http.MethodPost,
		path:     imagesPrefix,
		resource: "images",
		rawBody:  buf.Bytes(),
		bodyType: mw.FormDataContentType(),
		out:      &img,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(imagesPrefix)
	return &img, nil
}

// DeleteImage removes a satellite image and its derived analyses.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	err := c.do(ctx, &request{
		method:   http.MethodDelete,
		path:     imagesPrefix + "/" + url.PathEscape(id),
		resource: "images",
	})
	if err != nil {
		return err
	}
	c.invalidate(imagesPrefix)
	c.invalidate(analysesPrefix)
	return nil
}

// AnalyzeImage requests a new threat analysis run for an image.
func (c *Client) AnalyzeImage(ctx context.Context, id string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := c.do(ctx, &request{
		method:   http.MethodPost,
		path:     imagesPrefix + "/" + url.PathEscape(id) + "/analyze",
		resource: "images",
		out:      &analysis,
	})
	if err != nil {
		return nil, err
	}
	c.invalidate(imagesPrefix)
	c.invalidate(analysesPrefix)
	return &analysis, nil
}
