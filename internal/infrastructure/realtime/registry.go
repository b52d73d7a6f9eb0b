package realtime

import (
	"sync"
)

// Registry tracks live connections, the identity each is bound to, and room
// (conversation) membership per connection. A user may hold several
// connections at once; fan-out reaches each one joined to the room.
// All mutations are applied under one mutex so a join racing an unbind for
// the same connection can never leave a dangling room entry.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Connection            // sessionID -> connection
	userSessions map[string]map[string]struct{}    // userID -> set of sessionIDs
	rooms        map[string]map[string]*Connection // roomID -> sessionID -> connection
	sessionRooms map[string]map[string]struct{}    // sessionID -> set of roomIDs
}

// NewRegistry constructs an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:     make(map[string]*Connection),
		userSessions: make(map[string]map[string]struct{}),
		rooms:        make(map[string]map[string]*Connection),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Bind registers a verified connection and starts its write loop. It must be
// called exactly once per connection, before any room operation.
func (r *Registry) Bind(conn *Connection) {
	r.mu.Lock()
	r.sessions[conn.ID] = conn
	set := r.userSessions[conn.UserID]
	if set == nil {
		set = make(map[string]struct{})
		r.userSessions[conn.UserID] = set
	}
	set[conn.ID] = struct{}{}
	r.sessionRooms[conn.ID] = make(map[string]struct{})
	r.mu.Unlock()

	conn.Start()
}

// Join adds the connection to the room. Joining an already-joined room is a
// no-op, and joining with an unbound (or already unbound) connection does
// nothing, so a join racing a disconnect cannot resurrect the session.
func (r *Registry) Join(roomID string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[conn.ID]; !ok {
		return
	}

	room := r.rooms[roomID]
	if room == nil {
		room = make(map[string]*Connection)
		r.rooms[roomID] = room
	}
	room[conn.ID] = conn
	r.sessionRooms[conn.ID][roomID] = struct{}{}
}

// InRoom reports whether the connection is currently joined to the room.
func (r *Registry) InRoom(roomID string, conn *Connection) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID][conn.ID]
	return ok
}

// Broadcast writes payload to every connection currently joined to the room.
// excludeSessionID, when non-empty, skips that one connection (used for
// presence-style events that should not echo to the sender). Returns the
// number of connections the payload was enqueued for. Delivery targets are
// fixed at call time; connections that join later see nothing.
func (r *Registry) Broadcast(roomID string, payload []byte, excludeSessionID string) int {
	r.mu.RLock()
	room := r.rooms[roomID]
	targets := make([]*Connection, 0, len(room))
	for id, conn := range room {
		if id == excludeSessionID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		if err := conn.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

// Unbind removes the connection and all its room memberships as one step.
// Safe to call for a connection that was never bound, and safe to call twice.
func (r *Registry) Unbind(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbindLocked(conn.ID)
}

// Close terminates all tracked connections and clears registry state.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := make([]*Connection, 0, len(r.sessions))
	for _, conn := range r.sessions {
		sessions = append(sessions, conn)
	}
	r.sessions = make(map[string]*Connection)
	r.userSessions = make(map[string]map[string]struct{})
	r.rooms = make(map[string]map[string]*Connection)
	r.sessionRooms = make(map[string]map[string]struct{})
	r.mu.Unlock()

	for _, conn := range sessions {
		conn.Close(1001, "registry shutdown")
	}
}

func (r *Registry) unbindLocked(sessionID string) {
	conn, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	delete(r.sessions, sessionID)

	if set, ok := r.userSessions[conn.UserID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(r.userSessions, conn.UserID)
		}
	}

	for roomID := range r.sessionRooms[sessionID] {
		r.leaveLocked(roomID, sessionID)
	}
	delete(r.sessionRooms, sessionID)
}

func (r *Registry) leaveLocked(roomID string, sessionID string) {
	room := r.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(r.rooms, roomID)
	}
}
