package websocket

import (
	"sync"
)

// Roster enumerates every open connection, bound to a user or not. Global
// emits (presence changes, read receipts) go to the whole roster.
type Roster interface {
	All() []Sender
}

// ConnectionSet tracks all open connections for global fan-out. The gateway
// adds a connection at upgrade time and removes it on disconnect, so the set
// also covers connections that never issued a join.
type ConnectionSet struct {
	mu    sync.RWMutex
	conns map[string]*Connection // connID -> connection
}

// NewConnectionSet creates an empty set.
func NewConnectionSet() *ConnectionSet {
	return &ConnectionSet{
		conns: make(map[string]*Connection),
	}
}

// Add tracks a newly opened connection.
func (s *ConnectionSet) Add(conn *Connection) {
	if conn == nil {
		return
	}
	s.mu.Lock()
	s.conns[conn.ID()] = conn
	s.mu.Unlock()
}

// Remove drops a connection from the set. Idempotent.
func (s *ConnectionSet) Remove(connID string) {
	s.mu.Lock()
	delete(s.conns, connID)
	s.mu.Unlock()
}

// All returns a snapshot of the open connections. Delivery happens outside
// the lock, so connections closing mid-iteration just fail their own send.
func (s *ConnectionSet) All() []Sender {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sender, 0, len(s.conns))
	for _, conn := range s.conns {
		out = append(out, conn)
	}
	return out
}

// Len returns the number of open connections.
func (s *ConnectionSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
