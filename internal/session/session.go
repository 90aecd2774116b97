// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

// Package session owns the authenticated session state: the access/refresh
// token pair and its persistence between CLI invocations.
//
// The Store is the single writer for session state. The HTTP client reads
// tokens through it and the refresh coordinator rotates them through it;
// nothing mutates tokens directly. The on-disk representation is a 0600 JSON
// file holding the two token strings, the browser-storage analog of the
// original product.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// ErrNotAuthenticated is returned when an operation requires a session and
// none is established.
var ErrNotAuthenticated = errors.New("not logged in")

// Session is the persisted session state.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticated reports whether the session holds an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Store holds the in-memory session and mirrors every mutation to disk.
// Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	path    string
	current Session
}

// NewStore creates a session store backed by the given file path. The file is
// loaded if it exists; a missing file is an empty (logged out) session.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt session file is treated as logged out rather than
		// blocking every command.
		return s, nil
	}

	s.current = sess
	return s, nil
}

// Current returns a copy of the session state.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// AccessToken returns the current access token, which may be empty.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AccessToken
}

// RefreshToken returns the current refresh token, which may be empty.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.RefreshToken
}

// Authenticated reports whether a session is established.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Authenticated()
}

// Begin establishes a new session after login or registration.
func (s *Store) Begin(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{AccessToken: accessToken, RefreshToken: refreshToken}
	return s.persistLocked()
}

// Rotate replaces the access token after a successful refresh. An empty
// newRefreshToken keeps the existing refresh token (the backend did not
// rotate it).
func (s *Store) Rotate(accessToken, newRefreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.AccessToken = accessToken
	if newRefreshToken != "" {
		s.current.RefreshToken = newRefreshToken
	}
	return s.persistLocked()
}

// Clear destroys the session, both in memory and on disk. Clearing an
// already-empty session is a no-op; logout is idempotent.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = Session{}

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// persistLocked writes the session file with owner-only permissions.
// Must be called with mu held.
func (s *Store) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// Write to a temp file and rename so a crash never leaves a truncated
	// session file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}
