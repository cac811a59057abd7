// Package presence tracks which users are online and announces state
// changes to every open connection. Presence is purely in-memory: a restart
// resets everyone to offline, and no durability is promised.
package presence

import (
	"sync"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

// Tracker broadcasts userStatus events globally on online/offline
// transitions. Delivery is best effort; a failed send to one connection is
// logged and does not affect the others.
type Tracker struct {
	roster websocket.Roster

	mu     sync.RWMutex
	online map[string]bool
}

// NewTracker creates a tracker that announces over the given roster.
func NewTracker(roster websocket.Roster) *Tracker {
	return &Tracker{
		roster: roster,
		online: make(map[string]bool),
	}
}

// MarkOnline records the user as present and announces ONLINE to everyone.
func (t *Tracker) MarkOnline(userID string) {
	t.mu.Lock()
	t.online[userID] = true
	t.mu.Unlock()

	t.announce(userID, types.StatusOnline)
}

// MarkOffline records the user as absent and announces OFFLINE to everyone.
// Triggered by the registry losing the user's connection.
func (t *Tracker) MarkOffline(userID string) {
	t.mu.Lock()
	delete(t.online, userID)
	t.mu.Unlock()

	t.announce(userID, types.StatusOffline)
}

// IsOnline reports the current in-memory presence state for a user.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.online[userID]
}

// Online returns the IDs of all users currently marked online.
func (t *Tracker) Online() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]string, 0, len(t.online))
	for userID := range t.online {
		users = append(users, userID)
	}
	return users
}

func (t *Tracker) announce(userID, status string) {
	data, err := websocket.Encode(websocket.EventUserStatus, &websocket.UserStatusPayload{
		UserID: userID,
		Status: status,
	})
	if err != nil {
		logging.Error().Err(err).Str("user", userID).Msg("failed to encode presence event")
		return
	}

	for _, conn := range t.roster.All() {
		if err := conn.SendRaw(data); err != nil {
			logging.Warn().Err(err).Str("user", userID).Str("conn", conn.ID()).
				Msg("dropping presence event for connection")
		}
	}
}
