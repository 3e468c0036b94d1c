package hub

import "sync"

// Registry tracks which sessions currently belong to which room. It is
// ephemeral, in-memory state: it always reflects live connections only and
// never persisted entities. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]Session),
	}
}

// Add registers a session as a member of a room. Idempotent.
func (r *Registry) Add(roomID string, s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]Session)
		r.rooms[roomID] = members
	}
	members[s.ID()] = s
}

// Remove deregisters a session from a room. Idempotent; a room with no
// members left is dropped from the registry. Persisted history is unaffected.
func (r *Registry) Remove(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// IsMember reports whether a session is currently registered in a room.
func (r *Registry) IsMember(roomID, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, ok = members[sessionID]
	return ok
}

// Members returns a snapshot copy of a room's current sessions, so callers
// can iterate while memberships change underneath.
func (r *Registry) Members(roomID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Session, 0, len(members))
	for _, s := range members {
		out = append(out, s)
	}
	return out
}

// Count returns the number of sessions in a room.
func (r *Registry) Count(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// SessionCount returns the total number of registered sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, members := range r.rooms {
		total += len(members)
	}
	return total
}
