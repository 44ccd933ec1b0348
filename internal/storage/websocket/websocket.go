// Package websocket streams sessions and map summaries to a remote collector.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
	"github.com/fates3gx/sdk/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
}

// Backend implements storage.Backend over a WebSocket. start_session and
// end_session wait for an ack; map summaries are fire-and-forget.
type Backend struct {
	conn *connection
	cfg  Config

	mu        sync.Mutex
	sessionID string
	maps      int
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	return &Backend{conn: newConnection(logger), cfg: cfg}
}

// Init connects to the server.
func (b *Backend) Init() error {
	return b.conn.dial(b.cfg.URL, b.cfg.Secret)
}

// Close disconnects from the server.
func (b *Backend) Close() error {
	return b.conn.close()
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// StartSession announces s and waits for the ack. The message is replayed
// after every reconnect until EndSession.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.sessionID = s.ID
	b.maps = 0
	b.mu.Unlock()

	b.conn.setReplay(data)
	return b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession closes the session and waits for the ack.
func (b *Backend) EndSession() error {
	b.mu.Lock()
	id, maps := b.sessionID, b.maps
	b.sessionID, b.maps = "", 0
	b.mu.Unlock()
	if id == "" {
		return storage.ErrNoSession
	}

	data, err := marshalEnvelope(streaming.TypeEndSession, streaming.EndSessionPayload{SessionID: id, Maps: maps})
	b.conn.setReplay(nil)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)
}

// RecordMapSummary queues s without waiting for the server.
func (b *Backend) RecordMapSummary(s *core.MapSummary) error {
	b.mu.Lock()
	active := b.sessionID != ""
	if active {
		b.maps++
	}
	b.mu.Unlock()
	if !active {
		return storage.ErrNoSession
	}

	data, err := marshalEnvelope(streaming.TypeMapSummary, s)
	if err != nil {
		return err
	}
	if !b.conn.send(data) {
		return fmt.Errorf("map %d dropped: send queue full", s.Generation)
	}
	return nil
}
