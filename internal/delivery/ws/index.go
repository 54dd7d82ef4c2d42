package ws

import "sync"

// Index tracks the set of live connections in each room. Only rooms
// with at least one member appear in the index; the durable room
// record is a store concern and is never touched here.
type Index struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewIndex creates an empty membership index
func NewIndex() *Index {
	return &Index{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Add inserts a connection into the room's member set, creating the
// set if absent
func (ix *Index) Add(roomCode, connID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	members, ok := ix.rooms[roomCode]
	if !ok {
		members = make(map[string]struct{})
		ix.rooms[roomCode] = members
	}
	members[connID] = struct{}{}
}

// Remove deletes a connection from the room's member set. An empty
// set drops the room from the index entirely.
func (ix *Index) Remove(roomCode, connID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	members, ok := ix.rooms[roomCode]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(ix.rooms, roomCode)
	}
}

// Size returns the room's current member count, 0 if not indexed
func (ix *Index) Size(roomCode string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.rooms[roomCode])
}

// Members returns a copy of the room's connection IDs
func (ix *Index) Members(roomCode string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	members := ix.rooms[roomCode]
	if len(members) == 0 {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}
