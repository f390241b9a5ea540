package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/runtime"
)

// wsSendBufferSize is the per-client outbound message buffer size.
const wsSendBufferSize = 256

const (
	wsPingInterval = 30 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsMaxMessage   = 1 << 16
)

// Hub tracks every open WebSocket connection and broadcasts to all of
// them: Broadcast(v) sends to every connected peer, since this surface
// has no subscribe/unsubscribe protocol.
type Hub struct {
	logger  *logging.Logger
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

// wsClient is one connected WebSocket peer.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// NewHub creates an empty Hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{logger: logger, clients: make(map[*wsClient]struct{})}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Broadcast implements runtime.Broadcaster: marshal v and send it verbatim
// to every connected client. v is already the exact frame shape to send
// (e.g. {"type":"mqtt_msg",...}), so no envelope is added.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("websocket", "failed to marshal broadcast payload")
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister removes c from the hub. Only the goroutine that actually
// deletes the entry closes its send channel, avoiding a double close.
func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if existed {
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

var _ runtime.Broadcaster = (*Hub)(nil)

// handleWebSocket upgrades the connection and starts its read/write pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket", "upgrade failed")
		return
	}

	c := &wsClient{hub: s.hub, conn: conn, send: make(chan []byte, wsSendBufferSize)}
	s.hub.register(c)

	go c.writePump()
	go c.readPump(s.engine)
}

// readPump reads inbound frames and dispatches the publish-and-ack
// protocol.
func (c *wsClient) readPump(engine *runtime.Engine) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	//nolint:errcheck // best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongTimeout))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		//nolint:errcheck // best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsPongTimeout))
		c.handlePublish(message, engine)
	}
}

type wsPublishFrame struct {
	Topic   string `json:"topic"`
	Payload string `json:"payload"`
}

func (c *wsClient) handlePublish(data []byte, engine *runtime.Engine) {
	var frame wsPublishFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Topic == "" {
		c.sendJSON(map[string]any{"type": "error", "error": "missing_topic"})
		return
	}

	result := engine.PublishFromWS(frame.Topic, []byte(frame.Payload))
	if !result.MQTTConnected {
		c.sendJSON(map[string]any{"type": "error", "error": "mqtt_not_connected"})
		return
	}
	c.sendJSON(map[string]any{"type": "mqtt_pub_ack", "ok": result.Published})
}

func (c *wsClient) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.trySend(data)
}

// writePump writes queued messages and periodic pings to the connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsPongTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsPongTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend attempts a non-blocking send, dropping the frame for a slow
// client rather than blocking the broadcaster.
func (c *wsClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // absorb send-on-closed-channel panic
	}()
	select {
	case c.send <- data:
	default:
	}
}
