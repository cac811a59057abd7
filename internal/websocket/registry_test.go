package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	registry := NewRegistry()
	conn, _ := newTestConnection(t)

	replaced, err := registry.Register("user1", conn)
	require.NoError(t, err)
	assert.Nil(t, replaced)

	resolved, exists := registry.Resolve("user1")
	require.True(t, exists)
	assert.Equal(t, conn.ID(), resolved.ID())
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_RegisterNilConnection(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Register("user1", nil)
	assert.ErrorIs(t, err, ErrNilConnection)
}

func TestRegistry_LastJoinWins(t *testing.T) {
	registry := NewRegistry()
	first, _ := newTestConnection(t)
	second, _ := newTestConnection(t)

	_, err := registry.Register("user1", first)
	require.NoError(t, err)

	replaced, err := registry.Register("user1", second)
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, first.ID(), replaced.ID())

	resolved, exists := registry.Resolve("user1")
	require.True(t, exists)
	assert.Equal(t, second.ID(), resolved.ID())
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_UnregisterByConnection(t *testing.T) {
	registry := NewRegistry()
	conn, _ := newTestConnection(t)
	registry.Register("user1", conn)

	userID, ok := registry.Unregister(conn)
	require.True(t, ok)
	assert.Equal(t, "user1", userID)

	_, exists := registry.Resolve("user1")
	assert.False(t, exists)

	// Second unregister is a no-op.
	_, ok = registry.Unregister(conn)
	assert.False(t, ok)
}

func TestRegistry_UnregisterStaleConnectionKeepsReplacement(t *testing.T) {
	registry := NewRegistry()
	stale, _ := newTestConnection(t)
	current, _ := newTestConnection(t)

	registry.Register("user1", stale)
	registry.Register("user1", current)

	// Cleanup of the replaced connection must not evict the new one.
	_, ok := registry.Unregister(stale)
	assert.False(t, ok)

	resolved, exists := registry.Resolve("user1")
	require.True(t, exists)
	assert.Equal(t, current.ID(), resolved.ID())
}

func TestRegistry_UnregisterUser(t *testing.T) {
	registry := NewRegistry()
	conn, _ := newTestConnection(t)
	registry.Register("user1", conn)

	assert.True(t, registry.UnregisterUser("user1"))
	assert.False(t, registry.UnregisterUser("user1"))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_Users(t *testing.T) {
	registry := NewRegistry()
	a, _ := newTestConnection(t)
	b, _ := newTestConnection(t)
	registry.Register("alice", a)
	registry.Register("bob", b)

	assert.ElementsMatch(t, []string{"alice", "bob"}, registry.Users())
}
