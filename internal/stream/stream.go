// Groundwatch - Satellite Imagery Threat Monitoring
// Copyright 2026 Groundwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/groundwatch/groundwatch

/*
Package stream implements the live threat event subscriber.

The backend pushes threat detections over a WebSocket at
/api/v1/dashboard/stream. Subscriber maintains the connection for the
lifetime of watch mode:

  - Automatic reconnection with exponential backoff (1s doubling, capped)
  - Ping/pong keepalive
  - Thread-safe callback registration
  - Bearer authentication from the session store, re-read on every
    reconnect so a rotated access token is picked up automatically
*/
package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/groundwatch/groundwatch/internal/config"
	"github.com/groundwatch/groundwatch/internal/logging"
	"github.com/groundwatch/groundwatch/internal/metrics"
	"github.com/groundwatch/groundwatch/internal/models"
	"github.com/groundwatch/groundwatch/internal/session"
)

const (
	streamPath       = "/api/v1/dashboard/stream"
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 10 * time.Second

	initialReconnectDelay = time.Second
)

// Subscriber consumes the live threat event stream.
type Subscriber struct {
	baseURL string
	session *session.Store

	pingInterval      time.Duration
	reconnectMaxDelay time.Duration
	minSeverity       string

	conn     *websocket.Conn
	connMu   sync.RWMutex
	started  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	callbackMu sync.RWMutex
	onDetected func(models.Threat)
	onUpdated  func(models.Threat)
}

// NewSubscriber creates a stream subscriber. Call Connect to start it.
// minSeverity drops events below the threshold before any callback runs;
// empty means no filtering.
func NewSubscriber(apiURL string, store *session.Store, cfg config.StreamConfig, minSeverity string) *Subscriber {
	pingInterval := cfg.PingInterval
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	maxDelay := cfg.ReconnectMaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Minute
	}

	return &Subscriber{
		baseURL:           strings.TrimRight(apiURL, "/"),
		session:           store,
		pingInterval:      pingInterval,
		reconnectMaxDelay: maxDelay,
		minSeverity:       minSeverity,
		stopChan:          make(chan struct{}),
	}
}

// SetCallbacks registers the event handlers. Nil callbacks ignore that
// event type. Safe for concurrent use.
func (s *Subscriber) SetCallbacks(onDetected, onUpdated func(models.Threat)) {
	s.callbackMu.Lock()
	defer s.callbackMu.Unlock()
	s.onDetected = onDetected
	s.onUpdated = onUpdated
}

// Connect establishes the WebSocket connection and starts the listener and
// keepalive goroutines. The pair is started at most once per subscriber;
// reconnection after that is handled inside the listener. Connecting an
// already-connected subscriber is a no-op.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopChan:
		return fmt.Errorf("subscriber is closed")
	default:
	}

	s.connMu.Lock()
	if s.started {
		s.connMu.Unlock()
		return nil
	}
	s.started = true
	s.connMu.Unlock()

	if err := s.dial(ctx); err != nil {
		s.connMu.Lock()
		s.started = false
		s.connMu.Unlock()
		return err
	}

	s.wg.Add(2)
	go s.listen(ctx)
	go s.pingLoop(ctx)

	return nil
}

// dial establishes the WebSocket connection without starting any
// goroutines. The bearer token is re-read from the session store so a
// rotated access token is picked up on reconnect.
func (s *Subscriber) dial(ctx context.Context) error {
	wsURL, err := s.streamURL()
	if err != nil {
		return err
	}

	header := http.Header{}
	if token := s.session.AccessToken(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  handshakeTimeout,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("stream dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("stream dial failed: %w", err)
	}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	select {
	case <-s.stopChan:
		_ = conn.Close()
		return fmt.Errorf("subscriber is closed")
	default:
	}
	if s.conn != nil {
		_ = conn.Close()
		return nil
	}

	s.conn = conn
	logging.Info().Str("url", wsURL).Msg("threat stream connected")
	return nil
}

// Close stops the subscriber and waits for its goroutines to exit. Safe to
// call more than once.
func (s *Subscriber) Close() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.closeConnection()
	s.wg.Wait()
}

// streamURL converts the API base URL to the ws/wss stream endpoint.
func (s *Subscriber) streamURL() (string, error) {
	parsed, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}

	scheme := "ws"
	if parsed.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s%s", scheme, parsed.Host, streamPath), nil
}

// listen reads events until stopped, reconnecting with exponential backoff
// when the connection drops. The bearer token is re-read on every reconnect.
func (s *Subscriber) listen(ctx context.Context) {
	defer s.wg.Done()

	reconnectDelay := initialReconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		default:
		}

		s.connMu.RLock()
		conn := s.conn
		s.connMu.RUnlock()

		if conn == nil {
			select {
			case <-time.After(reconnectDelay):
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			}

			reconnectDelay *= 2
			if reconnectDelay > s.reconnectMaxDelay {
				reconnectDelay = s.reconnectMaxDelay
			}

			metrics.StreamReconnects.Inc()
			if err := s.dial(ctx); err != nil {
				logging.Warn().Err(err).Dur("next_retry", reconnectDelay).Msg("stream reconnect failed")
				continue
			}
			reconnectDelay = initialReconnectDelay
			continue
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			logging.Debug().Err(err).Msg("failed to set stream read deadline")
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Info().Msg("threat stream closed by server")
			} else if ctx.Err() == nil {
				logging.Warn().Err(err).Msg("threat stream read error")
			}
			s.closeConnection()
			continue
		}

		reconnectDelay = initialReconnectDelay
		s.handleMessage(message)
	}
}

// handleMessage decodes one event and routes it to the matching callback,
// applying the severity threshold first.
func (s *Subscriber) handleMessage(data []byte) {
	var event models.ThreatEvent
	if err := json.Unmarshal(data, &event); err != nil {
		logging.Warn().Err(err).Msg("malformed stream event")
		return
	}

	metrics.StreamEventsTotal.WithLabelValues(event.Type).Inc()

	if s.minSeverity != "" && !models.SeverityAtLeast(event.Threat.Severity, s.minSeverity) {
		return
	}

	s.callbackMu.RLock()
	defer s.callbackMu.RUnlock()

	switch event.Type {
	case models.EventThreatDetected:
		if s.onDetected != nil {
			s.onDetected(event.Threat)
		}
	case models.EventThreatUpdated:
		if s.onUpdated != nil {
			s.onUpdated(event.Threat)
		}
	default:
		logging.Debug().Str("type", event.Type).Msg("unknown stream event type")
	}
}

// pingLoop keeps the connection alive with periodic pings.
func (s *Subscriber) pingLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.connMu.RLock()
			conn := s.conn
			s.connMu.RUnlock()

			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				logging.Debug().Err(err).Msg("stream ping failed")
				s.closeConnection()
			}
		}
	}
}

// closeConnection tears down the current connection. The listener notices
// the nil connection and reconnects unless the subscriber was stopped.
func (s *Subscriber) closeConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return
	}
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err := s.conn.Close(); err != nil {
		logging.Debug().Err(err).Msg("failed to close stream connection")
	}
	s.conn = nil
}
