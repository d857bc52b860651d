package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve("user-1", w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	first := dial(t, srv)
	second := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Publish(Event{Name: EventThreadCreated, Data: map[string]any{"id": "t1"}})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

		var got Event
		require.NoError(t, conn.ReadJSON(&got))
		require.Equal(t, EventThreadCreated, got.Name)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)

	// Publishing with no clients must not block or panic.
	hub.Publish(Event{Name: EventLikeToggled})
}

func TestHubPreservesEventOrderPerClient(t *testing.T) {
	hub := NewHub()
	srv := newHubServer(t, hub)

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Publish(Event{Name: EventReplyCreated, Data: map[string]any{"seq": 1}})
	hub.Publish(Event{Name: EventReplyDeleted, Data: map[string]any{"seq": 2}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var first, second Event
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.Equal(t, EventReplyCreated, first.Name)
	require.Equal(t, EventReplyDeleted, second.Name)
}
