package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/entity"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/repository"
	"github.com/rocketscienceinc/tictactoe-coordinator/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wirePayload struct {
	RoleMark *string   `json:"role_mark"`
	Cells    []*string `json:"cells"`
	TurnMark string    `json:"turn_mark"`
	Winner   string    `json:"winner"`
	Text     string    `json:"text"`
	Seconds  int       `json:"seconds"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts, _ := newTestServerWithHub(t)

	return ts
}

func newTestServerWithHub(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()

	logger := discardLogger()
	m := metrics.New(prometheus.NewRegistry())
	server := New(logger, m, Options{})
	ctrl := session.NewController(logger, server, m, repository.NewMemoryResultRepository(), session.Options{
		ResetDelay:        time.Hour,
		CountdownInterval: time.Hour,
	})

	ts := httptest.NewServer(server.Handler(ctrl))
	t.Cleanup(func() {
		ts.Close()
		ctrl.Close()
	})

	return ts, server
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		_ = resp.Body.Close()
	})

	return conn
}

func read(t *testing.T, conn *websocket.Conn) (string, wirePayload) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var message Message
	require.NoError(t, conn.ReadJSON(&message))

	var payload wirePayload
	require.NoError(t, json.Unmarshal(message.Payload, &payload))

	return message.Action, payload
}

func write(t *testing.T, conn *websocket.Conn, action, payload string) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(Message{Action: action, Payload: json.RawMessage(payload)}))
}

func TestServer_Match(t *testing.T) {
	// Given: a running server
	ts := newTestServer(t)

	// When: two players connect
	first := dial(t, ts)
	action, payload := read(t, first)
	require.Equal(t, session.ActionInit, action)
	require.NotNil(t, payload.RoleMark)
	assert.Equal(t, "X", *payload.RoleMark)

	second := dial(t, ts)
	action, payload = read(t, second)
	require.Equal(t, session.ActionInit, action)
	require.NotNil(t, payload.RoleMark)
	assert.Equal(t, "O", *payload.RoleMark)

	// Then: both learn the match started
	for _, conn := range []*websocket.Conn{first, second} {
		action, payload = read(t, conn)
		require.Equal(t, session.ActionUpdate, action)
		assert.Equal(t, "X", payload.TurnMark)
	}

	// When: X plays the centre
	write(t, first, session.ActionMove, `{"index":4}`)

	// Then: both see the mark and it is O's turn
	for _, conn := range []*websocket.Conn{first, second} {
		action, payload = read(t, conn)
		require.Equal(t, session.ActionUpdate, action)
		require.Len(t, payload.Cells, 9)
		require.NotNil(t, payload.Cells[4])
		assert.Equal(t, "X", *payload.Cells[4])
		assert.Equal(t, "O", payload.TurnMark)
	}

	// When: a third connection arrives
	third := dial(t, ts)

	// Then: it is told the room is full
	action, _ = read(t, third)
	assert.Equal(t, session.ActionFull, action)

	// And: chat still reaches every connection
	write(t, second, session.ActionChat, `{"text":"nice"}`)
	for _, conn := range []*websocket.Conn{first, second, third} {
		action, payload = read(t, conn)
		require.Equal(t, session.ActionChat, action)
		require.NotNil(t, payload.RoleMark)
		assert.Equal(t, "O", *payload.RoleMark)
		assert.Equal(t, "nice", payload.Text)
	}

	// When: the second player leaves
	require.NoError(t, second.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.NoError(t, second.Close())

	// Then: the first player stays X and the unseated connection gets no role
	action, payload = read(t, first)
	require.Equal(t, session.ActionReset, action)
	require.NotNil(t, payload.RoleMark)
	assert.Equal(t, "X", *payload.RoleMark)

	action, payload = read(t, third)
	require.Equal(t, session.ActionReset, action)
	assert.Nil(t, payload.RoleMark)
}

func TestServer_MalformedFramesKeepConnection(t *testing.T) {
	ts := newTestServer(t)

	conn := dial(t, ts)
	action, _ := read(t, conn)
	require.Equal(t, session.ActionInit, action)

	// Given: garbage and wrong-typed events
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	write(t, conn, session.ActionMove, `{"index":"zero"}`)
	write(t, conn, "launch", `{}`)

	// When: a valid chat follows
	write(t, conn, session.ActionChat, `{"text":"still here"}`)

	// Then: the connection is alive and only the chat comes back
	action, payload := read(t, conn)
	assert.Equal(t, session.ActionChat, action)
	assert.Equal(t, "still here", payload.Text)
}

func TestServer_Delivery(t *testing.T) {
	t.Run("Full queue drops for that connection only", func(t *testing.T) {
		// Given: two registered clients with a one-slot queue
		m := metrics.New(prometheus.NewRegistry())
		server := New(discardLogger(), m, Options{SendBuffer: 1})
		slow := newClient("slow", nil, 1)
		fast := newClient("fast", nil, 2)
		server.register(slow)
		server.register(fast)

		// When: two broadcasts go out
		server.Broadcast(session.ActionChat, session.ChatPayload{RoleMark: "X", Text: "1"})
		server.Broadcast(session.ActionChat, session.ChatPayload{RoleMark: "X", Text: "2"})

		// Then: the slow client lost one, the fast one got both
		assert.Len(t, slow.send, 1)
		assert.Len(t, fast.send, 2)
		assert.InDelta(t, 1, testutil.ToFloat64(m.DroppedOutbounds), 0)
		assert.Equal(t, []entity.Identity{"slow", "fast"}, server.Connections())
	})

	t.Run("SendTo an unknown identity is ignored", func(t *testing.T) {
		m := metrics.New(prometheus.NewRegistry())
		server := New(discardLogger(), m, Options{})

		server.SendTo("nobody", session.ActionFull, session.FullPayload{})

		assert.InDelta(t, 0, testutil.ToFloat64(m.DroppedOutbounds), 0)
	})

	t.Run("Unregistered clients stop accepting messages", func(t *testing.T) {
		server := New(discardLogger(), metrics.New(prometheus.NewRegistry()), Options{})
		c := newClient("gone", nil, 4)
		server.register(c)

		server.unregister(c)
		server.unregister(c)

		assert.Empty(t, server.Connections())
		assert.False(t, c.enqueue([]byte("{}")))
	})
}

func TestServer_CloseAll(t *testing.T) {
	t.Run("Open connections receive a close frame", func(t *testing.T) {
		// Given: two connected players
		ts, server := newTestServerWithHub(t)
		first := dial(t, ts)
		second := dial(t, ts)
		for _, conn := range []*websocket.Conn{first, second} {
			action, _ := read(t, conn)
			require.Equal(t, session.ActionInit, action)
		}
		require.Eventually(t, func() bool {
			return len(server.Connections()) == 2
		}, time.Second, 5*time.Millisecond)

		// When: the server closes everything
		server.closeAll()

		// Then: both sockets see a normal closure well before the pong timeout
		for _, conn := range []*websocket.Conn{first, second} {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			for {
				_, _, err := conn.ReadMessage()
				if err != nil {
					assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
					break
				}
			}
		}
		assert.Empty(t, server.Connections())
	})

	t.Run("Closed clients stop accepting messages", func(t *testing.T) {
		server := New(discardLogger(), metrics.New(prometheus.NewRegistry()), Options{})
		a := newClient("a", nil, 4)
		b := newClient("b", nil, 4)
		server.register(a)
		server.register(b)

		server.closeAll()

		assert.Empty(t, server.Connections())
		assert.False(t, a.enqueue([]byte("{}")))
		assert.False(t, b.enqueue([]byte("{}")))
	})
}

func TestEncode(t *testing.T) {
	data, err := encode(session.ActionFull, session.FullPayload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"full","payload":{}}`, string(data))

	data, err = encode(session.ActionReset, session.ResetPayload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"reset","payload":{"role_mark":null}}`, string(data))
}

func TestServer_CheckOrigin(t *testing.T) {
	server := New(discardLogger(), metrics.New(prometheus.NewRegistry()), Options{AllowedOrigins: []string{"https://play.example"}})

	allowed := httptest.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "https://play.example")

	denied := httptest.NewRequest(http.MethodGet, "/ws", nil)
	denied.Header.Set("Origin", "https://evil.example")

	assert.True(t, server.checkOrigin(allowed))
	assert.False(t, server.checkOrigin(denied))

	open := New(discardLogger(), metrics.New(prometheus.NewRegistry()), Options{})
	assert.True(t, open.checkOrigin(denied))
}
