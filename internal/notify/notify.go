// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package notify delivers user-visible notifications. It is the terminal
// analog of the dashboard's transient toast messages: API failures and
// session expiry surface here in addition to being returned as errors.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notifier receives user-visible notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Terminal writes notifications to a writer, one per line, prefixed with the
// level. Safe for concurrent use.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a terminal notifier. A nil writer defaults to stderr.
func NewTerminal(out io.Writer) *Terminal {
	if out == nil {
		out = os.Stderr
	}
	return &Terminal{out: out}
}

// Notify writes the notification.
func (t *Terminal) Notify(level Level, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%s] %s\n", level, message)
}

// Discard is a Notifier that drops everything. Useful for tests and for
// library consumers that surface errors themselves.
type Discard struct{}

// Notify implements Notifier.
func (Discard) Notify(Level, string) {}
