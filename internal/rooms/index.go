// Package rooms maintains the broadcast groups for chat rooms: which
// connections are subscribed to which chat's fan-out set.
//
// Subscriptions hold connection identifiers, not user identifiers, and are
// independent of the chat membership recorded in the store. Cleanup on
// disconnect is eager: the reverse index lets LeaveAll remove a connection
// from every room it joined, so broadcasts never iterate stale entries.
package rooms

import (
	"sync"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
)

// Index is the room membership index. Safe for concurrent use; broadcast
// snapshots the subscriber set before delivering so join/leave during a
// broadcast never corrupts iteration.
type Index struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]websocket.Sender // roomID -> connID -> subscriber
	joined map[string]map[string]bool             // connID -> roomID set
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		rooms:  make(map[string]map[string]websocket.Sender),
		joined: make(map[string]map[string]bool),
	}
}

// Join subscribes a connection to a room. Idempotent.
func (i *Index) Join(roomID string, sub websocket.Sender) {
	if sub == nil || roomID == "" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.rooms[roomID] == nil {
		i.rooms[roomID] = make(map[string]websocket.Sender)
	}
	i.rooms[roomID][sub.ID()] = sub

	if i.joined[sub.ID()] == nil {
		i.joined[sub.ID()] = make(map[string]bool)
	}
	i.joined[sub.ID()][roomID] = true
}

// Leave removes a connection from a room. No-op if absent. Empty room and
// reverse-index entries are deleted to keep the maps from growing unbounded.
func (i *Index) Leave(roomID, connID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.leaveLocked(roomID, connID)
}

func (i *Index) leaveLocked(roomID, connID string) {
	if subs, exists := i.rooms[roomID]; exists {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(i.rooms, roomID)
		}
	}
	if roomSet, exists := i.joined[connID]; exists {
		delete(roomSet, roomID)
		if len(roomSet) == 0 {
			delete(i.joined, connID)
		}
	}
}

// LeaveAll removes a connection from every room it joined, called by the
// lifecycle controller on disconnect.
func (i *Index) LeaveAll(connID string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	for roomID := range i.joined[connID] {
		i.leaveLocked(roomID, connID)
	}
	delete(i.joined, connID)
}

// Rooms returns the rooms a connection is currently subscribed to.
func (i *Index) Rooms(connID string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]string, 0, len(i.joined[connID]))
	for roomID := range i.joined[connID] {
		out = append(out, roomID)
	}
	return out
}

// Subscribers returns the number of connections subscribed to a room.
func (i *Index) Subscribers(roomID string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.rooms[roomID])
}

// Broadcast encodes the event once and delivers it to every subscriber of
// the room except excludeConnID (pass "" to deliver to all). Delivery is
// fire-and-forget per recipient: a failed send is logged and the rest of the
// room still receives the event. Returns the number of successful sends.
func (i *Index) Broadcast(roomID, event string, payload interface{}, excludeConnID string) int {
	data, err := websocket.Encode(event, payload)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Str("room", roomID).
			Msg("failed to encode broadcast event")
		return 0
	}

	i.mu.RLock()
	subs := make([]websocket.Sender, 0, len(i.rooms[roomID]))
	for connID, sub := range i.rooms[roomID] {
		if connID == excludeConnID {
			continue
		}
		subs = append(subs, sub)
	}
	i.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if err := sub.SendRaw(data); err != nil {
			logging.Warn().Err(err).Str("event", event).Str("room", roomID).
				Str("conn", sub.ID()).Msg("dropping event for subscriber")
			continue
		}
		delivered++
	}
	return delivered
}
