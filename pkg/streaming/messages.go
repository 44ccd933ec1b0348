// Package streaming defines the wire format of the summary stream.
package streaming

import (
	"encoding/json"

	"github.com/fates3gx/sdk/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeMapSummary   = "map_summary"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a new engine run.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}

// EndSessionPayload closes a run.
type EndSessionPayload struct {
	SessionID string `json:"sessionId"`
	Maps      int    `json:"maps"`
}
