package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gomoku/backend/internal/logger"
	"github.com/gomoku/backend/internal/middleware"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Send pings to peer with this period. Must be less than pongWait.
	maxMessageSize = 4096                // Maximum message size allowed from peer.
	sendBuffer     = 256
)

// Client is one websocket connection. playerID and closed are guarded by
// the hub lock.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	key      string
	playerID string
	closed   bool
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		key:  uuid.New().String(),
	}
}

// ServeWs handles WebSocket connection requests and upgrades them
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if middleware.OriginAllowed(hub.origins, origin) {
				return true
			}
			logger.Warn("WebSocket origin rejected", zap.String("origin", origin))
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed",
			zap.Error(err),
			zap.String("remote", r.RemoteAddr),
			zap.String("origin", r.Header.Get("Origin")))
		return
	}

	client := newClient(hub, conn)
	logger.Debug("WebSocket connection upgraded", zap.String("remote", r.RemoteAddr), zap.String("client", client.key))

	select {
	case hub.register <- client:
	case <-hub.quit:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// readPump continuously reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.Warn("WebSocket error", zap.String("client", c.key), zap.Error(err))
			}
			break
		}
		if resp := c.hub.handleMessage(c, message); resp != nil {
			c.hub.deliver(c, resp)
		}
	}
}

// writePump continuously writes messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage decodes one raw message, runs it and encodes the response.
func (h *Hub) handleMessage(c *Client, message []byte) []byte {
	var resp Response
	var req Request
	switch {
	case h.limiter != nil && !h.limiter.Allow(c.key):
		resp = failure(req, ErrRateLimited)
	case json.Unmarshal(message, &req) != nil:
		resp = failure(req, ErrMalformedRequest)
	default:
		resp = h.handleRequest(c, req)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to encode response", zap.String("reqId", req.ReqID), zap.Error(err))
		return nil
	}
	return data
}
