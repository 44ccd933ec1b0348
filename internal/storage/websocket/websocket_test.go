package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
	"github.com/fates3gx/sdk/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	conns    int
	secrets  []string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, env := range m.all() {
		if env.Type == msgType {
			n++
		}
	}
	return n
}

// testServer acks start_session and end_session. With dropFirst set, the
// first connection is closed right after its start_session ack.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		ml.mu.Lock()
		ml.conns++
		first := ml.conns == 1
		ml.secrets = append(ml.secrets, r.URL.Query().Get("secret"))
		ml.mu.Unlock()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if dropFirst && first {
					return
				}
			}
		}
	}))
	return srv, ml
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func session() *core.Session {
	return &core.Session{ID: "sess-1", EngineVersion: "test", CodeBase: 0x00100000}
}

func TestStartAndEndSession(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(session()))
	require.NoError(t, b.RecordMapSummary(&core.MapSummary{SessionID: "sess-1", Generation: 1}))
	require.NoError(t, b.RecordMapSummary(&core.MapSummary{SessionID: "sess-1", Generation: 2}))
	require.NoError(t, b.EndSession())

	msgs := ml.all()
	require.Len(t, msgs, 4)
	assert.Equal(t, streaming.TypeStartSession, msgs[0].Type)
	assert.Equal(t, streaming.TypeMapSummary, msgs[1].Type)
	assert.Equal(t, streaming.TypeEndSession, msgs[3].Type)

	var start streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &start))
	assert.Equal(t, "sess-1", start.Session.ID)
	assert.Equal(t, core.Handle(0x00100000), start.Session.CodeBase)

	var summary core.MapSummary
	require.NoError(t, json.Unmarshal(msgs[2].Payload, &summary))
	assert.Equal(t, uint32(2), summary.Generation)

	var end streaming.EndSessionPayload
	require.NoError(t, json.Unmarshal(msgs[3].Payload, &end))
	assert.Equal(t, streaming.EndSessionPayload{SessionID: "sess-1", Maps: 2}, end)

	assert.Equal(t, []string{"test"}, ml.secrets)
}

func TestWithoutSession(t *testing.T) {
	srv, ml := testServer(t, false)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.RecordMapSummary(&core.MapSummary{}), storage.ErrNoSession)
	assert.ErrorIs(t, b.EndSession(), storage.ErrNoSession)
	assert.Empty(t, ml.all())
}

func TestReconnectReplaysStartSession(t *testing.T) {
	srv, ml := testServer(t, true)
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	b.conn.baseBackoff = 10 * time.Millisecond
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartSession(session()))

	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeStartSession) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, b.RecordMapSummary(&core.MapSummary{SessionID: "sess-1", Generation: 1}))
	assert.Eventually(t, func() bool {
		return ml.count(streaming.TypeMapSummary) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ml.mu.Lock()
	assert.Equal(t, 2, ml.conns)
	ml.mu.Unlock()
}

func TestInit_DialFailure(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/api"}, nil)
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestInit_InvalidURL(t *testing.T) {
	b := New(Config{URL: "://bad"}, nil)
	err := b.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid websocket URL")
}
