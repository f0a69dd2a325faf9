package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/drawguess/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Time between keepalive pings, must be less than pongWait
	pingPeriod = 30 * time.Second

	// Canvas snapshots arrive as base64 data URLs
	maxMessageSize = 2 << 20

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one live WebSocket connection
type Client struct {
	ref         model.ConnectionRef
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	logger      *slog.Logger
}

func newClient(ref model.ConnectionRef, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		ref:         ref,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		logger:      logger.With(slog.String("conn", string(ref))),
	}
}

// Ref returns the client's connection handle
func (c *Client) Ref() model.ConnectionRef {
	return c.ref
}

// trySend queues a frame without blocking. Callers hold the hub lock.
func (c *Client) trySend(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump drains the send channel to the socket until the hub closes it
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("ws write failed", slog.String("error", err.Error()))
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

// readPump feeds inbound frames to handle until the peer goes away
func (c *Client) readPump(handle func([]byte)) {
	defer func() {
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", slog.String("error", err.Error()))
			}
			return
		}
		handle(data)
	}
}
