package server

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	h := NewHub(discardLogger())
	h.now = func() time.Time { return fixedNow }
	go h.Run()
	t.Cleanup(func() { _ = h.Shutdown(time.Second) })
	return h
}

// join registers a socketless client and returns it with its greeting unread.
func join(h *Hub, name string) *Client {
	c := NewClient(nil, h, "127.0.0.1", name)
	h.register <- c
	return c
}

// barrier returns once the hub loop has finished every event sent before it.
func barrier(h *Hub) {
	h.register <- nil
}

func next(t *testing.T, c *Client) Message {
	t.Helper()

	select {
	case payload, ok := <-c.send:
		require.True(t, ok, "send queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_Greets_New_Client_With_Alias(t *testing.T) {
	h := newTestHub(t)
	c := join(h, "Tiger-Jakarta")

	require.Equal(t, "Tiger-Jakarta", c.Alias())
	require.NotEmpty(t, c.ID())
	require.Equal(t, NewSystemMessage("You are **Tiger-Jakarta**"), next(t, c))
	barrier(h)
	require.Empty(t, c.send)
	require.Equal(t, 1, h.Stats().Clients)
}

func TestHub_Replays_History_After_Greeting(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)

	// Given a client that already sent three messages
	a := join(h, "Tiger-Jakarta")
	next(t, a)
	for i := 0; i < 3; i++ {
		h.inbound <- inboundFrame{client: a, payload: []byte(fmt.Sprintf("m%d", i))}
	}
	barrier(h)

	// When a second client connects
	b := join(h, "Gajah-Medan")

	// Then it gets its greeting, then the backlog oldest first, unchanged
	req.Equal(KindSystem, next(t, b).Kind)
	for i := 0; i < 3; i++ {
		req.Equal(NewChatMessage("Tiger-Jakarta", fmt.Sprintf("m%d", i), fixedNow), next(t, b))
	}
	barrier(h)
	req.Empty(b.send)
}

func TestHub_Broadcasts_To_Everyone_Including_Sender(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	clients := []*Client{join(h, "Tiger-Jakarta"), join(h, "Gajah-Medan"), join(h, "Komodo-Bandung")}
	for _, c := range clients {
		next(t, c)
	}

	h.inbound <- inboundFrame{client: clients[1], payload: []byte("  hello \n")}

	want := NewChatMessage("Gajah-Medan", "hello", fixedNow)
	for _, c := range clients {
		req.Equal(want, next(t, c))
	}
	barrier(h)
	req.Equal(1, h.Stats().History)
}

func TestHub_Ignores_Blank_Frames(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	a := join(h, "Tiger-Jakarta")
	b := join(h, "Gajah-Medan")
	next(t, a)
	next(t, b)

	for _, raw := range []string{"", "   ", "\n\t"} {
		h.inbound <- inboundFrame{client: a, payload: []byte(raw)}
	}
	barrier(h)

	req.Empty(a.send)
	req.Empty(b.send)
	req.Equal(0, h.Stats().History)
}

func TestHub_Unregistered_Client_Gets_No_Broadcast(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	a := join(h, "Tiger-Jakarta")
	b := join(h, "Gajah-Medan")
	next(t, a)
	next(t, b)

	h.inbound <- inboundFrame{client: a, payload: []byte("before")}
	next(t, a)
	next(t, b)

	// When b disconnects
	h.unregister <- b
	h.inbound <- inboundFrame{client: a, payload: []byte("after")}

	// Then only a sees the next message and history keeps both
	req.Equal("after", next(t, a).Text)
	_, ok := <-b.send
	req.False(ok, "send queue should be closed")
	req.Equal(Stats{Clients: 1, History: 2}, h.Stats())
}

func TestHub_Unregister_Twice_Is_Harmless(t *testing.T) {
	h := newTestHub(t)
	c := join(h, "Tiger-Jakarta")

	h.unregister <- c
	h.unregister <- c
	barrier(h)

	require.Equal(t, 0, h.Stats().Clients)
}

func TestHub_Skips_Clients_Whose_Transport_Is_Closed(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	a := join(h, "Tiger-Jakarta")
	b := join(h, "Gajah-Medan")
	next(t, a)
	next(t, b)

	b.markClosed()
	h.inbound <- inboundFrame{client: a, payload: []byte("hi")}
	next(t, a)
	barrier(h)

	// b is skipped but stays registered until its own close path runs
	req.Empty(b.send)
	req.Equal(2, h.Stats().Clients)
}

func TestHub_Full_Queue_Drops_Only_That_Client(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	sender := join(h, "Tiger-Jakarta")
	slow := join(h, "Gajah-Medan")
	other := join(h, "Komodo-Bandung")
	next(t, sender)
	next(t, other)

	// Given a client whose queue is full
	barrier(h)
	for slow.enqueue([]byte(`{}`)) {
	}

	// When a message is broadcast
	h.inbound <- inboundFrame{client: sender, payload: []byte("hello")}

	// Then the others still get it and the slow client is dropped
	req.Equal("hello", next(t, sender).Text)
	req.Equal("hello", next(t, other).Text)
	barrier(h)
	req.Equal(2, h.Stats().Clients)
	req.False(slow.IsOpen())
}

func TestHub_Ignores_Frames_From_Unknown_Clients(t *testing.T) {
	h := newTestHub(t)
	a := join(h, "Tiger-Jakarta")
	next(t, a)

	stranger := NewClient(nil, h, "127.0.0.1", "Merak-Ambon")
	h.inbound <- inboundFrame{client: stranger, payload: []byte("hi")}
	barrier(h)

	require.Empty(t, a.send)
	require.Equal(t, 0, h.Stats().History)
}

func TestHub_History_Stays_Bounded(t *testing.T) {
	req := require.New(t)
	h := newTestHub(t)
	a := join(h, "Tiger-Jakarta")
	next(t, a)

	for i := 0; i < HistorySize+10; i++ {
		h.inbound <- inboundFrame{client: a, payload: []byte(fmt.Sprintf("m%d", i))}
		next(t, a)
	}

	b := join(h, "Gajah-Medan")
	next(t, b)
	first := next(t, b)
	req.Equal("m10", first.Text)
	req.Equal(HistorySize, h.Stats().History)
}

func TestHub_Shutdown_Closes_Client_Queues(t *testing.T) {
	req := require.New(t)
	h := NewHub(discardLogger())
	go h.Run()
	a := join(h, "Tiger-Jakarta")
	next(t, a)

	req.NoError(h.Shutdown(time.Second))

	_, ok := <-a.send
	req.False(ok)
	req.Equal(0, h.Stats().Clients)
}

func TestHub_Connect_After_Shutdown_Fails(t *testing.T) {
	h := NewHub(discardLogger())
	go h.Run()
	require.NoError(t, h.Shutdown(time.Second))

	_, err := h.Connect(nil, "127.0.0.1")
	require.ErrorIs(t, err, ErrHubStopped)
}

func TestHub_Shutdown_Without_Run_Times_Out(t *testing.T) {
	h := NewHub(discardLogger())

	require.ErrorIs(t, h.Shutdown(20*time.Millisecond), ErrShutdownTimeout)
}
