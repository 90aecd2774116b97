// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/groundwatch/groundwatch/internal/models"
)

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func renderUser(out io.Writer, u *models.User) {
	w := newTable(out)
	fmt.Fprintf(w, "username:\t%s\n", u.Username)
	fmt.Fprintf(w, "email:\t%s\n", u.Email)
	if u.FullName != "" {
		fmt.Fprintf(w, "name:\t%s\n", u.FullName)
	}
	if u.Rank != "" {
		fmt.Fprintf(w, "rank:\t%s\n", u.Rank)
	}
	if u.Unit != "" {
		fmt.Fprintf(w, "unit:\t%s\n", u.Unit)
	}
	fmt.Fprintf(w, "verified:\t%t\n", u.Verified)
	_ = w.Flush()
}

func renderImages(out io.Writer, page *models.Collection[models.SatelliteImage]) {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tFILENAME\tREGION\tSTATUS\tCAPTURED\tUPLOADED")
	for _, img := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			img.ID, img.Filename, img.Region, img.Status,
			formatTime(img.CapturedAt), formatTime(img.UploadedAt))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d of %d\n", len(page.Items), page.Total)
}

func renderAnalyses(out io.Writer, page *models.Collection[models.Analysis]) {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tIMAGE\tSTATUS\tMODEL\tTHREATS\tSUMMARY")
	for _, a := range page.Items {
		summary := a.Summary
		if a.Status == models.AnalysisStatusFailed && a.Error != "" {
			summary = a.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			a.ID, a.ImageID, a.Status, a.Model, a.ThreatCount, summary)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d of %d\n", len(page.Items), page.Total)
}

func renderThreats(out io.Writer, page *models.Collection[models.Threat]) {
	w := newTable(out)
	fmt.Fprintln(w, "ID\tSEVERITY\tCLASS\tCONF\tACK\tVERIFIED\tDETECTED")
	for _, th := range page.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%t\t%t\t%s\n",
			th.ID, th.Severity, th.Class, th.Confidence,
			th.Acknowledged, th.Verified, formatTime(th.DetectedAt))
	}
	_ = w.Flush()
	fmt.Fprintf(out, "%d of %d\n", len(page.Items), page.Total)
}

func renderThreatDetail(out io.Writer, th *models.Threat) {
	w := newTable(out)
	fmt.Fprintf(w, "id:\t%s\n", th.ID)
	fmt.Fprintf(w, "class:\t%s\n", th.Class)
	fmt.Fprintf(w, "severity:\t%s\n", th.Severity)
	fmt.Fprintf(w, "confidence:\t%.2f\n", th.Confidence)
	fmt.Fprintf(w, "location:\t%.4f, %.4f\n", th.Latitude, th.Longitude)
	fmt.Fprintf(w, "bounding box:\t%dx%d at (%d, %d)\n",
		th.BoundingBox.Width, th.BoundingBox.Height, th.BoundingBox.X, th.BoundingBox.Y)
	fmt.Fprintf(w, "image:\t%s\n", th.ImageID)
	fmt.Fprintf(w, "analysis:\t%s\n", th.AnalysisID)
	fmt.Fprintf(w, "acknowledged:\t%t\n", th.Acknowledged)
	fmt.Fprintf(w, "verified:\t%t\n", th.Verified)
	fmt.Fprintf(w, "detected:\t%s\n", formatTime(th.DetectedAt))
	_ = w.Flush()
}

func renderSettings(out io.Writer, s *models.Settings) {
	w := newTable(out)
	fmt.Fprintf(w, "email notifications:\t%t\n", s.NotifyEmail)
	fmt.Fprintf(w, "notify on critical:\t%t\n", s.NotifyCritical)
	fmt.Fprintf(w, "default region:\t%s\n", s.DefaultRegion)
	fmt.Fprintf(w, "map style:\t%s\n", s.MapStyle)
	fmt.Fprintf(w, "map overlay:\t%s\n", s.MapOverlay)
	fmt.Fprintf(w, "severity threshold:\t%s\n", s.SeverityThreshold)
	_ = w.Flush()
}

func renderStats(out io.Writer, stats *models.DashboardStats) {
	w := newTable(out)
	fmt.Fprintf(w, "images:\t%d\n", stats.TotalImages)
	fmt.Fprintf(w, "pending analyses:\t%d\n", stats.PendingAnalyses)
	fmt.Fprintf(w, "active threats:\t%d\n", stats.ActiveThreats)
	for _, sev := range []string{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if n := stats.ThreatsBySeverity[sev]; n > 0 {
			fmt.Fprintf(w, "  %s:\t%d\n", sev, n)
		}
	}
	_ = w.Flush()
}
