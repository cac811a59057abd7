package websocket

import (
	"sync"
)

// Registry maps authenticated users to their live connection. A user is
// present on at most one connection: a second join overwrites the first
// without closing it, matching the last-join-wins contract.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Connection // userID -> live connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[string]*Connection),
	}
}

// Register upserts the user -> connection mapping and returns the replaced
// connection, if any. The replaced connection stays open; it is simply no
// longer the target for user-directed events.
func (r *Registry) Register(userID string, conn *Connection) (*Connection, error) {
	if conn == nil {
		return nil, ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.byUser[userID]
	r.byUser[userID] = conn
	if previous == conn {
		return nil, nil
	}
	return previous, nil
}

// Unregister removes whichever entry currently maps to this connection and
// returns the user it belonged to. The entry is found by scanning for the
// connection ID; the registry stays small enough that O(n) is acceptable.
// No-op if the connection was never registered or was already replaced.
func (r *Registry) Unregister(conn *Connection) (string, bool) {
	if conn == nil {
		return "", false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, registered := range r.byUser {
		if registered.ID() == conn.ID() {
			delete(r.byUser, userID)
			return userID, true
		}
	}
	return "", false
}

// UnregisterUser removes the mapping for userID directly, used by the leave
// event. Returns false if the user was not registered.
func (r *Registry) UnregisterUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUser[userID]; !exists {
		return false
	}
	delete(r.byUser, userID)
	return true
}

// Resolve returns the live connection for a user, for direct user-targeted
// events as opposed to room broadcasts.
func (r *Registry) Resolve(userID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.byUser[userID]
	return conn, exists
}

// Users returns the IDs of all currently registered users.
func (r *Registry) Users() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	return users
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
