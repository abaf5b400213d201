// Package server keeps the bounded backlog of recent chat messages replayed to
// newly connected clients.
package server

import "sync"

// HistorySize is the number of messages retained for replay.
const HistorySize = 50

// History is a fixed-capacity ring buffer of messages, oldest first. When
// full, each Append evicts exactly the oldest entry.
type History struct {
	mu    sync.RWMutex
	items []Message
	start int
	count int
}

// NewHistory creates an empty history holding at most capacity messages.
// A non-positive capacity falls back to HistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = HistorySize
	}
	return &History{items: make([]Message, capacity)}
}

// Append stores msg as the newest entry.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	capacity := len(h.items)
	if h.count < capacity {
		h.items[(h.start+h.count)%capacity] = msg
		h.count++
		return
	}

	h.items[h.start] = msg
	h.start = (h.start + 1) % capacity
}

// Snapshot returns a copy of the held messages, oldest first. The returned
// slice is never touched by later appends.
func (h *History) Snapshot() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, h.count)
	for i := range out {
		out[i] = h.items[(h.start+i)%len(h.items)]
	}
	return out
}

// Len returns the number of held messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Cap returns the capacity of the buffer.
func (h *History) Cap() int {
	return len(h.items)
}
