package ws

import (
	"sync"

	"github.com/andikafarhan/coretan/internal/domain"
)

// Assignment is a connection's resolved room and identity
type Assignment struct {
	RoomCode string
	Identity domain.Identity
}

// Registry is the single source of truth for which room a live
// connection is in and who it is. Entries are created empty on
// connect and populated on a successful join.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Assignment
}

// NewRegistry creates an empty connection registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Assignment),
	}
}

// Register creates an empty entry for a new connection
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = Assignment{}
}

// Assign overwrites the connection's assignment. Re-assigning an
// already joined connection is how a room switch takes effect.
func (r *Registry) Assign(connID string, a Assignment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = a
}

// Clear resets the connection to registered-but-unjoined
func (r *Registry) Clear(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[connID]; ok {
		r.entries[connID] = Assignment{}
	}
}

// Lookup returns the connection's assignment. The second return is
// false when the connection is unknown or has not joined a room.
func (r *Registry) Lookup(connID string) (Assignment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.entries[connID]
	if !ok || a.RoomCode == "" {
		return Assignment{}, false
	}
	return a, true
}

// Remove deletes the connection's entry; no-op if absent
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connID)
}
