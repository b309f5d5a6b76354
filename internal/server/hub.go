package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"MarketPulse/internal/metrics"
	"MarketPulse/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// clientBuffer bounds the per-client outbound queue; a client that cannot
// drain it is dropped rather than allowed to stall the broadcast.
const clientBuffer = 8

// Hub fans refresh snapshots out to connected websocket clients.
type Hub struct {
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]*wsClient
}

type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(m *metrics.Metrics, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		metrics: m,
		logger:  logger,
		clients: make(map[string]*wsClient),
	}
}

// Broadcast pushes a snapshot to every connected client. Slow clients are
// disconnected.
func (h *Hub) Broadcast(snap *model.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		h.logger.Errorw("marshal snapshot", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warnw("dropping slow websocket client", "client", id)
			h.removeLocked(id)
		}
	}
}

// HandleWS upgrades the request and serves the snapshot stream until the
// client disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade", "err", err)
		return
	}

	c := &wsClient{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientBuffer),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.metrics.WSClients.Inc()
	h.logger.Infow("websocket client connected", "client", c.id)

	go h.writePump(c)
	h.readPump(c)
}

// writePump drains the client's send queue onto the wire.
func (h *Hub) writePump(c *wsClient) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c.id)
			return
		}
	}
	c.conn.Close()
}

// readPump discards inbound frames; its only job is to notice the close.
func (h *Hub) readPump(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c.id)
			return
		}
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

// removeLocked must be called with h.mu held.
func (h *Hub) removeLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	h.metrics.WSClients.Dec()
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.clients {
		h.removeLocked(id)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
