package realtime

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jeromedesantos12/app-circle/pkg/logger"
	"github.com/jeromedesantos12/app-circle/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	defaultBufferSize = 64
)

// Hub fans mutation events out to every connected client. Delivery is at most
// once: a client whose send buffer is full is dropped, not queued behind.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*connection]struct{}
	upgrader websocket.Upgrader
}

// NewHub constructs a fan-out hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the client for
// event delivery. It blocks until the client disconnects.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("realtime: upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, conn, userID)
	h.register(client)

	go client.writeLoop()
	client.readLoop()
}

// Publish broadcasts the event to every connected client. It never blocks on a
// slow client and never reports delivery errors to the caller.
func (h *Hub) Publish(event Event) {
	metrics.EventsPublished.WithLabelValues(event.Name).Inc()

	// Closing a connection re-locks the hub, so backpressured clients are
	// collected under the read lock and dropped after it is released.
	h.mu.RLock()
	var dropped []*connection
	for client := range h.conns {
		select {
		case client.send <- event:
		default:
			dropped = append(dropped, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range dropped {
		logger.Warn("realtime: dropping backpressure client", zap.String("user_id", client.userID))
		client.close()
	}
}

// ClientCount reports the number of currently registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) register(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[client] = struct{}{}
	metrics.RealtimeClients.Set(float64(len(h.conns)))
}

func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client]; !ok {
		return
	}
	delete(h.conns, client)
	metrics.RealtimeClients.Set(float64(len(h.conns)))
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	userID string
	send   chan Event
	once   sync.Once
}

func newConnection(hub *Hub, conn *websocket.Conn, userID string) *connection {
	return &connection{
		hub:    hub,
		socket: conn,
		userID: userID,
		send:   make(chan Event, defaultBufferSize),
	}
}

// readLoop drains inbound frames to keep pong handling alive. Clients have
// nothing to say on this socket; any payload they do send is ignored.
func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("realtime: unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		close(c.send)
		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
