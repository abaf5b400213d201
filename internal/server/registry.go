// Package server tracks the set of live client connections used for fan-out.
package server

import (
	"sync"

	"github.com/samber/lo"
)

// Registry is the set of currently open clients, keyed by connection id.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register adds a client. Registering the same client twice is harmless.
func (r *Registry) Register(c *Client) {
	if c == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.id] = c
}

// Unregister removes a client and reports whether it was present. Removing an
// absent client is a no-op.
func (r *Registry) Unregister(c *Client) bool {
	if c == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.clients[c.id]
	if !ok || current != c {
		return false
	}
	delete(r.clients, c.id)
	return true
}

// Contains reports whether c is currently registered.
func (r *Registry) Contains(c *Client) bool {
	if c == nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.clients[c.id] == c
}

// ForEach calls fn for every client registered at the time of the call. The
// callback runs without the registry lock held, so it may unregister clients
// or observe clients that closed after the snapshot was taken.
func (r *Registry) ForEach(fn func(*Client)) {
	for _, c := range r.snapshot() {
		fn(c)
	}
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.clients)
}
