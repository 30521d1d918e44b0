package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reelx/internal/preload"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
	clientBuffer = 8
)

// Event is one websocket message.
type Event struct {
	Type      string           `json:"type"`
	Snapshot  preload.Snapshot `json:"snapshot"`
	Timestamp int64            `json:"timestamp"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues data unless the client is closed or its buffer is full.
func (c *client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans window snapshots out to websocket clients. A client that falls behind by more than a few
// snapshots is disconnected rather than slowing the window down.
type Hub struct {
	upgrader websocket.Upgrader
	current  func() preload.Snapshot
	logger   *log.Logger

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates a hub. current supplies the snapshot a new client receives on connect.
func NewHub(current func() preload.Snapshot, logger *log.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		current: current,
		logger:  logger,
		clients: make(map[string]*client),
	}
}

// Clients returns the ids of connected clients.
func (h *Hub) Clients() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.clients)
}

// Broadcast sends snap to every client without blocking.
func (h *Hub) Broadcast(snap preload.Snapshot) {
	data, err := encodeEvent("pass", snap)
	if err != nil {
		h.logger.Error("failed to encode snapshot", "err", err)
		return
	}

	h.mu.RLock()
	clients := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(data) {
			h.logger.Warn("dropping slow websocket client", "client", c.id)
			h.remove(c)
		}
	}
}

// ServeHTTP upgrades the connection and streams snapshots until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{
		id:   r.RemoteAddr + "#" + lo.RandomString(6, lo.AlphanumericCharset),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", "client", c.id)

	if data, err := encodeEvent("snapshot", h.current()); err == nil {
		c.trySend(data)
	}

	go h.writePump(c)
	h.readPump(c)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := lo.Values(h.clients)
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.close()
}

// readPump discards client messages and tracks liveness through pongs.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		h.logger.Debug("websocket client disconnected", "client", c.id)
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encodeEvent(kind string, snap preload.Snapshot) ([]byte, error) {
	return json.Marshal(Event{Type: kind, Snapshot: snap, Timestamp: time.Now().Unix()})
}
