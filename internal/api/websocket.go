package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roomsign/roomsign-core/internal/infrastructure/config"
	"github.com/roomsign/roomsign-core/internal/infrastructure/logging"
	"github.com/roomsign/roomsign-core/internal/pairing"
)

// WebSocket frame types.
const (
	WSTypeConnected = "connected"
	WSTypeEvent     = "event"
	WSTypePing      = "ping"
	WSTypePong      = "pong"
	WSTypeError     = "error"

	// wsSendBufferSize is the per-client outbound message buffer size.
	// A client that cannot drain this buffer has its messages dropped
	// rather than stalling the broadcaster.
	wsSendBufferSize = 256
)

// WSMessage represents a message sent to/from a stream client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Scope is the (tenant, optional room) key that selects which connected
// clients receive a notification.
type Scope struct {
	TenantID string `json:"tenant_id"`
	RoomID   string `json:"room_id,omitempty"`
}

// Matches reports whether a client holding this scope should receive an
// event broadcast with the given scope. Tenants must match; room narrowing
// applies only when both sides name a room.
func (s Scope) Matches(event Scope) bool {
	if s.TenantID != event.TenantID {
		return false
	}
	if s.RoomID == "" || event.RoomID == "" {
		return true
	}
	return s.RoomID == event.RoomID
}

// wsConn is the subset of *websocket.Conn the hub uses. Tests substitute
// failing implementations to exercise the removal paths.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Hub manages stream connections and fans out scoped notifications.
//
// The client registry is the only shared mutable state: every mutation
// happens under the hub lock, and broadcasts snapshot the registry before
// touching any client so a slow sink never holds the lock.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*WSClient]struct{}
	mu      sync.RWMutex
}

// WSClient represents one connected stream client.
type WSClient struct {
	hub   *Hub
	id    string
	scope Scope
	conn  wsConn
	send  chan []byte

	// deviceID is non-empty for display connections; admin console
	// connections carry only a scope.
	deviceID string

	// cleanup runs the deregistration path exactly once, no matter which
	// trigger fires first: read error, write error, ping failure, or hub
	// shutdown.
	cleanup sync.Once
	onClose func()
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new stream hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run starts the hub's main loop. It blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub and returns immediately.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("stream client connected",
		"client_id", client.id,
		"tenant_id", client.scope.TenantID,
		"room_id", client.scope.RoomID,
		"clients", h.ClientCount(),
	)
}

// Unregister removes a client from the hub. Safe to call multiple times
// and concurrently with an in-flight broadcast. Only the goroutine that
// removes the client from the map closes the send channel, preventing
// double-close panics during shutdown.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("stream client disconnected", "client_id", client.id, "clients", h.ClientCount())
}

// Broadcast sends an event to every client whose scope matches.
//
// Delivery is non-blocking: a full or closed send buffer never stalls the
// caller, and a write failure on one client's connection removes only that
// client. From the mutator's point of view a broadcast always succeeds.
func (h *Hub) Broadcast(scope Scope, eventType string, payload any) {
	msg := WSMessage{
		Type:      WSTypeEvent,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	// Snapshot client list under hub lock, then release before sending
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sentCount := 0
	for _, client := range clients {
		if client.scope.Matches(scope) {
			client.trySend(data)
			sentCount++
		}
	}
	if sentCount > 0 {
		h.logger.Debug("broadcast sent",
			"event_type", eventType,
			"tenant_id", scope.TenantID,
			"room_id", scope.RoomID,
			"recipients", sentCount,
		)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CountByScope returns the number of clients whose scope matches.
func (h *Hub) CountByScope(scope Scope) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for client := range h.clients {
		if client.scope.Matches(scope) {
			n++
		}
	}
	return n
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// handleStream upgrades the HTTP connection to a long-lived push channel.
//
// Two caller identities are accepted:
//   - Displays authenticate with their pairing-issued device token; the
//     scope comes from the device's tenant and room bindings.
//   - Admin consoles authenticate with a single-use ticket (obtained from
//     POST /auth/ws-ticket) plus explicit tenant_id / room_id parameters.
//
// Unauthenticated requests are rejected before any hub interaction.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	client, ok := s.authenticateStream(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client.conn = conn

	s.hub.Register(client)

	if client.deviceID != "" {
		s.registry.MarkStreaming(client.deviceID)
		if s.telemetry != nil {
			s.telemetry.WriteConnectionEvent(client.deviceID, "streaming")
		}
	}

	// Initial frame: client identifier and timestamp.
	client.sendFrame(WSMessage{
		Type:      WSTypeConnected,
		ID:        client.id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	// Start read/write pumps
	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// authenticateStream resolves the caller's identity and scope. It writes
// the error response itself and returns ok=false on rejection.
func (s *Server) authenticateStream(w http.ResponseWriter, r *http.Request) (*WSClient, bool) {
	client := &WSClient{
		hub:  s.hub,
		id:   "conn-" + uuid.NewString()[:16],
		send: make(chan []byte, wsSendBufferSize),
	}

	if token := r.URL.Query().Get("token"); token != "" {
		d, err := s.registry.GetDeviceByTokenHash(r.Context(), pairing.HashToken(token))
		if err != nil {
			writeUnauthorized(w, "invalid device token")
			return nil, false
		}
		client.deviceID = d.ID
		client.scope = Scope{TenantID: d.TenantID}
		if d.RoomID != nil {
			client.scope.RoomID = *d.RoomID
		}
		client.onClose = func() {
			s.registry.MarkDisconnected(d.ID)
			if s.telemetry != nil {
				s.telemetry.WriteConnectionEvent(d.ID, "disconnected")
			}
		}
		return client, true
	}

	if ticket := r.URL.Query().Get("ticket"); ticket != "" {
		if !s.tickets.redeem(ticket) {
			writeUnauthorized(w, "invalid or expired ticket")
			return nil, false
		}
		tenantID := r.URL.Query().Get("tenant_id")
		if tenantID == "" {
			writeBadRequest(w, "tenant_id query parameter is required")
			return nil, false
		}
		client.scope = Scope{
			TenantID: tenantID,
			RoomID:   r.URL.Query().Get("room_id"),
		}
		return client, true
	}

	writeUnauthorized(w, "token or ticket query parameter is required")
	return nil, false
}

// close runs the cleanup path exactly once: deregister, release the
// connection, and notify the registry for device connections.
func (c *WSClient) close() {
	c.cleanup.Do(func() {
		c.hub.Unregister(c)
		if c.conn != nil {
			c.conn.Close()
		}
		if c.onClose != nil {
			c.onClose()
		}
	})
}

// readPump reads messages from the connection. Displays rarely send
// anything; this pump exists to observe transport close and keep the read
// deadline fresh.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer c.close()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection alive
		// even if the client doesn't respond to protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes queued messages and periodic keep-alive pings to the
// connection. Either failure triggers the shared cleanup path.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message. The stream protocol is
// intentionally thin: clients may send pings, everything else is an error.
func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendFrame(WSMessage{Type: WSTypeError, Payload: map[string]string{"message": "invalid JSON message"}})
		return
	}

	switch msg.Type {
	case WSTypePing:
		c.sendFrame(WSMessage{Type: WSTypePong, ID: msg.ID})
	default:
		c.sendFrame(WSMessage{
			Type:    WSTypeError,
			ID:      msg.ID,
			Payload: map[string]string{"message": "unknown message type: " + msg.Type},
		})
	}
}

// trySend attempts to queue data for the client without blocking.
// It silently handles closed channels (client disconnected during broadcast)
// and full buffers (slow client).
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// sendFrame marshals and queues a frame for the client.
func (c *WSClient) sendFrame(msg WSMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}
