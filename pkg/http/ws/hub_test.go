package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPair returns a server-side Connection and the client conn that talks to it.
func newPair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()
	serverConns := make(chan *websocket.Conn, 1)
	upgrader := NewUpgrader(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	conn := NewConnection(<-serverConns, zerolog.Nop())
	go conn.WritePump()
	return conn, client
}

func read(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, c.ReadJSON(&msg))
	return msg
}

func TestBroadcastToRoomReachesOnlyMembers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, clientA := newPair(t)
	b, clientB := newPair(t)
	idA, idB := uuid.New(), uuid.New()
	hub.RegisterConnection(idA, a)
	hub.RegisterConnection(idB, b)

	hub.JoinRoom("trie", idA)
	hub.JoinRoom("trie", idA)
	hub.JoinRoom("heap", idB)
	assert.Equal(t, 1, hub.RoomSize("trie"))

	msg, err := NewMessage(TypeStatusUpdate, StatusUpdatePayload{Slug: "trie", Status: "Saved!"})
	require.NoError(t, err)
	require.NoError(t, hub.BroadcastToRoom("trie", msg))

	got := read(t, clientA)
	assert.Equal(t, TypeStatusUpdate, got.Type)
	assert.JSONEq(t, `{"slug":"trie","status":"Saved!"}`, string(got.Payload))

	require.NoError(t, hub.SendTo(idB, Message{Type: TypePong}))
	assert.Equal(t, TypePong, read(t, clientB).Type, "b saw nothing from the trie room")
}

func TestUnregisterRemovesFromRooms(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, _ := newPair(t)
	id := uuid.New()
	hub.RegisterConnection(id, a)
	hub.JoinRoom("trie", id)

	hub.UnregisterConnection(id)

	assert.Zero(t, hub.RoomSize("trie"))
	assert.ErrorIs(t, hub.SendTo(id, Message{Type: TypePing}), ErrConnectionNotFound)
	assert.ErrorIs(t, a.Send(Message{Type: TypePing}), ErrConnectionClosed)
}

func TestLeaveRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a, _ := newPair(t)
	id := uuid.New()
	hub.RegisterConnection(id, a)
	hub.JoinRoom("trie", id)
	hub.LeaveRoom("trie", id)

	assert.Zero(t, hub.RoomSize("trie"))
	assert.NoError(t, hub.BroadcastToRoom("trie", Message{Type: TypePing}))
}

func TestUpgraderOriginCheck(t *testing.T) {
	up := NewUpgrader([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, up.CheckOrigin(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, up.CheckOrigin(req))

	req.Header.Del("Origin")
	assert.True(t, up.CheckOrigin(req))

	assert.True(t, NewUpgrader([]string{"*"}).CheckOrigin(req))
}
