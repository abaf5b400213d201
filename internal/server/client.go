// Package server manages individual WebSocket clients, handling read/write
// pumps and lifecycle control for each connection.
package server

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize bounds the per-client outbound queue. It must exceed
// HistorySize so the greeting and a full replay always fit.
const sendBufferSize = 256

// Client represents a WebSocket client connection in the chat system. The
// alias is fixed for the lifetime of the connection.
type Client struct {
	id     string
	alias  string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	addr   string
	open   atomic.Bool
	closed atomic.Bool
	log    *slog.Logger
}

// NewClient creates a new Client instance with the provided WebSocket
// connection, hub reference, client address and alias. The client's send
// channel is buffered to handle message queuing.
func NewClient(conn *websocket.Conn, hub *Hub, addr, name string) *Client {
	id := uuid.NewString()

	log := slog.Default()
	if hub != nil {
		log = hub.log
	}

	c := &Client{
		id:    id,
		alias: name,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		hub:   hub,
		addr:  addr,
		log:   log.With("conn_id", id, "alias", name, "remote", addr),
	}
	c.open.Store(true)
	return c
}

// ID returns the unique connection id.
func (c *Client) ID() string {
	return c.id
}

// Alias returns the display name assigned at connect time.
func (c *Client) Alias() string {
	return c.alias
}

// IsOpen reports whether the underlying transport can still take writes.
func (c *Client) IsOpen() bool {
	return c.open.Load()
}

func (c *Client) markClosed() {
	c.open.Store(false)
}

// enqueue queues payload without blocking and reports whether it fit.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// logReadError logs why the read loop stopped at a level matching how
// expected the cause is.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Message exceeded maximum size", "error", err)

	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.log.Debug("Client disconnected", "error", err)

	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("Client connection closed", "error", err)

	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("Unexpected WebSocket error", "error", err)

	default:
		c.log.Info("WebSocket read error", "error", err)
	}
}

// readPump forwards every frame to the hub until the connection fails, then
// leaves the hub.
func (c *Client) readPump() {
	defer func() {
		c.markClosed()
		c.hub.leave(c)
		c.closeConnection()
	}()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.hub.receive(c, rawMessage)
	}
}

// writePump writes each queued message as its own text frame. It stops on
// the first write error or when the hub closes the send channel.
func (c *Client) writePump() {
	defer c.closeConnection()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			if !isExpectedCloseError(err) {
				c.log.Warn("Error writing message", "error", err)
			}
			c.markClosed()
			return
		}
	}

	c.writeCloseMessage()
}

// writeCloseMessage sends a close frame to the client.
func (c *Client) writeCloseMessage() {
	err := c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil && !isExpectedCloseError(err) {
		c.log.Debug("Error writing close message", "error", err)
	}
}

// closeConnection closes the WebSocket connection once, logging only
// unexpected errors.
func (c *Client) closeConnection() {
	if c.conn == nil || !c.closed.CompareAndSwap(false, true) {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Debug("Error closing connection", "error", err)
	}
}
