// Package server coordinates client registration, message broadcast, history
// replay, and connection cleanup for the chat relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aufawibowo/urban-palm-tree/internal/alias"
	"github.com/gorilla/websocket"
)

// inboundFrame is a raw frame read from a client, waiting for the hub loop.
type inboundFrame struct {
	client  *Client
	payload []byte
}

// Stats is a point-in-time view of the hub's shared state.
type Stats struct {
	Clients int
	History int
}

// Hub owns the connection registry and the message history. Every mutation
// of either goes through the Run loop, which is the single point where
// inbound messages are ordered, stored and fanned out.
type Hub struct {
	registry   *Registry
	history    *History
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	newAlias   func() string
	now        func() time.Time
	log        *slog.Logger
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with an empty registry and a history of HistorySize
// messages. The returned Hub is ready once Run has been started.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   NewRegistry(),
		history:    NewHistory(HistorySize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame),
		newAlias:   alias.Generate,
		now:        time.Now,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Connect wraps an upgraded connection in a Client with a freshly generated
// alias, registers it and starts its pumps. It fails with ErrHubStopped once
// the hub has been shut down; the caller then owns conn.
func (h *Hub) Connect(conn *websocket.Conn, addr string) (*Client, error) {
	client := NewClient(conn, h, addr, h.newAlias())

	h.wg.Add(2)
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		h.wg.Add(-2)
		return nil, ErrHubStopped
	}

	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
	return client, nil
}

// Stats reports how many clients are connected and how many messages are held.
func (h *Hub) Stats() Stats {
	return Stats{
		Clients: h.registry.Len(),
		History: h.history.Len(),
	}
}

// receive hands a raw frame to the hub loop.
func (h *Hub) receive(c *Client, payload []byte) {
	select {
	case h.inbound <- inboundFrame{client: c, payload: payload}:
	case <-h.ctx.Done():
	}
}

// leave asks the hub loop to unregister c.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and inbound messages. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.drop(client, "disconnected")

		case frame := <-h.inbound:
			h.handleInbound(frame)
		}
	}
}

// handleRegister registers the client, then queues its greeting and the
// history replay ahead of any later broadcast.
func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.registry.Register(client)
	client.log.Info("Client registered", "clients", h.registry.Len())

	if !h.deliver(client, greeting(client.alias)) {
		h.drop(client, "greeting not delivered")
		return
	}
	for _, msg := range h.history.Snapshot() {
		if !h.deliver(client, msg) {
			h.drop(client, "history replay not delivered")
			return
		}
	}
}

// handleInbound turns a raw frame into a chat message, records it and fans it
// out to every open client, the sender included.
func (h *Hub) handleInbound(frame inboundFrame) {
	if !h.registry.Contains(frame.client) {
		return
	}

	text, ok := normalizeText(frame.payload)
	if !ok {
		return
	}

	msg := NewChatMessage(frame.client.alias, text, h.now())
	h.history.Append(msg)
	h.broadcast(msg)
}

// broadcast queues msg on every open client. Clients whose queue is full are
// unregistered after the loop so one slow reader never blocks the others.
func (h *Hub) broadcast(msg Message) {
	payload, err := msg.Encode()
	if err != nil {
		h.log.Error("Failed to encode broadcast message", "error", err)
		return
	}

	var failed []*Client
	h.registry.ForEach(func(c *Client) {
		if !c.IsOpen() {
			return
		}
		if !c.enqueue(payload) {
			failed = append(failed, c)
		}
	})

	h.log.Debug("Broadcast message", "clients", h.registry.Len(), "failed", len(failed))
	for _, c := range failed {
		h.drop(c, "send queue full")
	}
}

// deliver encodes msg and queues it on a single client.
func (h *Hub) deliver(c *Client, msg Message) bool {
	payload, err := msg.Encode()
	if err != nil {
		h.log.Error("Failed to encode message", "error", err)
		return true
	}
	return c.enqueue(payload)
}

// drop unregisters c and closes its send queue, which makes its write pump
// close the connection. Dropping an absent client does nothing.
func (h *Hub) drop(c *Client, reason string) {
	if !h.registry.Unregister(c) {
		return
	}
	c.markClosed()
	close(c.send)
	c.log.Info("Client unregistered", "reason", reason, "clients", h.registry.Len())
}

// shutdownClients unregisters every client and closes its connection.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	count := 0
	h.registry.ForEach(func(c *Client) {
		h.drop(c, "server shutdown")
		c.closeConnection()
		count++
	})

	h.log.Info("Closed client connections", "count", count)
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines
// to complete. It returns ErrShutdownTimeout if they are still running when
// the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()

	deadline := time.After(timeout)
	select {
	case <-h.done:
	case <-deadline:
		return ErrShutdownTimeout
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-deadline:
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return ErrShutdownTimeout
	}
}
