package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(h, []string{"http://allowed.example"})
	fakeAuth := func(c *gin.Context) {
		if uid := c.Query("uid"); uid != "" {
			c.Set("userID", uid)
			c.Set("userRole", "user")
		}
	}
	r.GET("/ws", fakeAuth, handler.Serve)
	r.GET("/presence", handler.Presence)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil returns the first frame named event and the frames skipped before it.
func readUntil(t *testing.T, conn *websocket.Conn, event string) (frame, []frame) {
	t.Helper()
	var skipped []frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)
		var f frame
		require.NoError(t, json.Unmarshal(raw, &f))
		if f.Event == event {
			return f, skipped
		}
		skipped = append(skipped, f)
	}
}

func TestWebSocketChatRoundTrip(t *testing.T) {
	f := newChatFixture(t, Options{})
	srv := newTestServer(t, f.hub)

	alice := dial(t, srv, f.alice.ID)
	readUntil(t, alice, EventSnapshot)
	bob := dial(t, srv, f.bob.ID)
	readUntil(t, bob, EventSnapshot)

	require.NoError(t, alice.WriteJSON(map[string]any{
		"event": EventChatMessage,
		"data":  map[string]any{"room_id": f.room.ID, "content": "over the wire", "client_id": "opt-1"},
	}))

	ack, skipped := readUntil(t, alice, EventChatAck)
	for _, s := range skipped {
		assert.NotEqual(t, EventChatMessage, s.Event, "origin must not get its own message")
	}
	var a ackOut
	require.NoError(t, json.Unmarshal(ack.Data, &a))
	assert.Equal(t, "opt-1", a.ClientID)

	msg, _ := readUntil(t, bob, EventChatMessage)
	assert.Contains(t, string(msg.Data), "over the wire")

	require.NoError(t, alice.WriteJSON(map[string]any{"event": EventPing}))
	readUntil(t, alice, EventPong)

	require.NoError(t, bob.Close())
	off, _ := readUntil(t, alice, EventUserOffline)
	assert.Contains(t, string(off.Data), f.bob.ID)
}

func TestWebSocketRejectsUnauthenticatedAndForeignOrigins(t *testing.T) {
	h := newTestHub(t, Options{})
	srv := newTestServer(t, h)
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err = websocket.DefaultDialer.Dial(base+"?uid=alice", header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": {"http://allowed.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(base+"?uid=alice", header)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, EventSnapshot)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/presence", nil)
	srv.Config.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
}
