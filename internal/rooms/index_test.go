package rooms

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
)

// fakeSender records delivered frames in place of a live connection.
type fakeSender struct {
	id   string
	fail bool

	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeSender) ID() string { return f.id }

func (f *fakeSender) SendRaw(data []byte) error {
	if f.fail {
		return errors.New("connection gone")
	}
	f.mu.Lock()
	f.frames = append(f.frames, data)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) events(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var names []string
	for _, frame := range f.frames {
		var env websocket.Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		names = append(names, env.Event)
	}
	return names
}

func TestIndex_JoinIsIdempotent(t *testing.T) {
	index := NewIndex()
	sub := &fakeSender{id: "c1"}

	index.Join("room1", sub)
	index.Join("room1", sub)

	assert.Equal(t, 1, index.Subscribers("room1"))

	delivered := index.Broadcast("room1", websocket.EventTyping,
		&websocket.TypingPayload{ChatID: "room1", UserID: "u1"}, "")
	assert.Equal(t, 1, delivered)
	assert.Len(t, sub.events(t), 1)
}

func TestIndex_LeaveIsNoOpWhenAbsent(t *testing.T) {
	index := NewIndex()

	index.Leave("room1", "ghost")
	assert.Equal(t, 0, index.Subscribers("room1"))
}

func TestIndex_BroadcastExcludesSender(t *testing.T) {
	index := NewIndex()
	sender := &fakeSender{id: "c1"}
	other := &fakeSender{id: "c2"}
	index.Join("chat1", sender)
	index.Join("chat1", other)

	delivered := index.Broadcast("chat1", websocket.EventTyping,
		&websocket.TypingPayload{ChatID: "chat1", UserID: "alice"}, sender.ID())

	assert.Equal(t, 1, delivered)
	assert.Empty(t, sender.events(t))
	assert.Equal(t, []string{websocket.EventTyping}, other.events(t))
}

func TestIndex_BroadcastToAllIncludesEveryone(t *testing.T) {
	index := NewIndex()
	a := &fakeSender{id: "c1"}
	b := &fakeSender{id: "c2"}
	outsider := &fakeSender{id: "c3"}
	index.Join("chat1", a)
	index.Join("chat1", b)
	index.Join("chat2", outsider)

	delivered := index.Broadcast("chat1", websocket.EventNewMessage,
		&websocket.NewMessagePayload{ChatID: "chat1"}, "")

	assert.Equal(t, 2, delivered)
	assert.Len(t, a.events(t), 1)
	assert.Len(t, b.events(t), 1)
	assert.Empty(t, outsider.events(t))
}

func TestIndex_BroadcastEmptyRoom(t *testing.T) {
	index := NewIndex()
	sub := &fakeSender{id: "c1"}
	index.Join("room1", sub)
	index.Leave("room1", sub.ID())

	delivered := index.Broadcast("room1", websocket.EventTyping,
		&websocket.TypingPayload{}, "")
	assert.Equal(t, 0, delivered)
}

func TestIndex_FailedRecipientDoesNotAbortDelivery(t *testing.T) {
	index := NewIndex()
	broken := &fakeSender{id: "c1", fail: true}
	healthy := &fakeSender{id: "c2"}
	index.Join("chat1", broken)
	index.Join("chat1", healthy)

	delivered := index.Broadcast("chat1", websocket.EventNewMessage,
		&websocket.NewMessagePayload{ChatID: "chat1"}, "")

	assert.Equal(t, 1, delivered)
	assert.Len(t, healthy.events(t), 1)
}

func TestIndex_LeaveAllCleansEveryRoom(t *testing.T) {
	index := NewIndex()
	sub := &fakeSender{id: "c1"}
	stayer := &fakeSender{id: "c2"}
	index.Join("chat1", sub)
	index.Join("chat2", sub)
	index.Join("chat1", stayer)

	index.LeaveAll(sub.ID())

	assert.Equal(t, 1, index.Subscribers("chat1"))
	assert.Equal(t, 0, index.Subscribers("chat2"))
	assert.Empty(t, index.Rooms(sub.ID()))
}

func TestIndex_ConcurrentJoinLeaveBroadcast(t *testing.T) {
	index := NewIndex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sub := &fakeSender{id: fmt.Sprintf("c%d", n)}
			for j := 0; j < 50; j++ {
				index.Join("busy", sub)
				index.Broadcast("busy", websocket.EventTyping,
					&websocket.TypingPayload{ChatID: "busy"}, "")
				index.Leave("busy", sub.ID())
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, index.Subscribers("busy"))
}
