package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/config"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(config.StoreConfig{
		Path:           filepath.Join(t.TempDir(), "chat.db"),
		OpTimeout:      5 * time.Second,
		MaxConnections: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func strPtr(s string) *string { return &s }

func TestStore_CreateChatDirect(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "alice & bob", "alice", []string{"bob"})
	require.NoError(t, err)
	assert.Equal(t, types.ChatTypeDirect, chat.Type)
	require.Len(t, chat.Members, 2)

	roles := map[string]string{}
	for _, m := range chat.Members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, types.MemberRoleAdmin, roles["alice"])
	assert.Equal(t, types.MemberRoleMember, roles["bob"])

	loaded, err := s.GetChat(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, chat.ID, loaded.ID)
	assert.Len(t, loaded.Members, 2)
}

func TestStore_CreateChatGroup(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.CreateChat(context.Background(), "team", "alice", []string{"bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, types.ChatTypeGroup, chat.Type)
	assert.Len(t, chat.Members, 3)
}

func TestStore_CreateChatCreatorAlreadyListed(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.CreateChat(context.Background(), "self-listed", "alice", []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Len(t, chat.Members, 2)
	assert.Equal(t, types.ChatTypeDirect, chat.Type)
}

func TestStore_IsMember(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "pair", "alice", []string{"bob"})
	require.NoError(t, err)

	member, err := s.IsMember(ctx, chat.ID, "bob")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = s.IsMember(ctx, chat.ID, "mallory")
	require.NoError(t, err)
	assert.False(t, member)

	member, err = s.IsMember(ctx, "no-such-chat", "bob")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestStore_MessageRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "pair", "alice", []string{"bob"})
	require.NoError(t, err)

	msg, err := s.CreateMessage(ctx, &types.NewMessageInput{
		ChatID:   chat.ID,
		SenderID: "alice",
		Content:  "hello",
		Type:     types.MessageTypeImage,
		MediaURL: strPtr("https://cdn.example.com/a.png"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	loaded, err := s.FindMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, msg.ID, loaded.ID)
	assert.Equal(t, chat.ID, loaded.ChatID)
	assert.Equal(t, "alice", loaded.SenderID)
	assert.Equal(t, "hello", loaded.Content)
	assert.Equal(t, types.MessageTypeImage, loaded.Type)
	require.NotNil(t, loaded.MediaURL)
	assert.Equal(t, "https://cdn.example.com/a.png", *loaded.MediaURL)
	assert.Nil(t, loaded.ReplyToMessageID)
	assert.False(t, loaded.IsRead)
}

func TestStore_FindMessageAbsent(t *testing.T) {
	s := newTestStore(t)

	msg, err := s.FindMessage(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestStore_MarkMessageReadIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "pair", "alice", []string{"bob"})
	require.NoError(t, err)
	msg, err := s.CreateMessage(ctx, &types.NewMessageInput{
		ChatID:   chat.ID,
		SenderID: "alice",
		Content:  "hi",
		Type:     types.MessageTypeText,
	})
	require.NoError(t, err)

	require.NoError(t, s.MarkMessageRead(ctx, msg.ID))
	require.NoError(t, s.MarkMessageRead(ctx, msg.ID))

	loaded, err := s.FindMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsRead)
}

func TestStore_TouchChatActivityReordersListing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateChat(ctx, "first", "alice", []string{"bob"})
	require.NoError(t, err)
	// Space out creation so updated_at values are distinct.
	time.Sleep(10 * time.Millisecond)
	second, err := s.CreateChat(ctx, "second", "alice", []string{"carol"})
	require.NoError(t, err)

	chats, err := s.ListUserChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, second.ID, chats[0].ID)

	time.Sleep(10 * time.Millisecond)
	msg, err := s.CreateMessage(ctx, &types.NewMessageInput{
		ChatID:   first.ID,
		SenderID: "alice",
		Content:  "bump",
		Type:     types.MessageTypeText,
	})
	require.NoError(t, err)
	require.NoError(t, s.TouchChatActivity(ctx, first.ID, msg.ID))

	chats, err = s.ListUserChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	require.NotNil(t, chats[0].LastMessageID)
	assert.Equal(t, msg.ID, *chats[0].LastMessageID)
}

func TestStore_ListUserChatsOnlyOwn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateChat(ctx, "mine", "alice", []string{"bob"})
	require.NoError(t, err)
	_, err = s.CreateChat(ctx, "theirs", "carol", []string{"dave"})
	require.NoError(t, err)

	chats, err := s.ListUserChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "mine", chats[0].Name)

	chats, err = s.ListUserChats(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestStore_ListChatMessagesPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chat, err := s.CreateChat(ctx, "pair", "alice", []string{"bob"})
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 5; i++ {
		msg, err := s.CreateMessage(ctx, &types.NewMessageInput{
			ChatID:   chat.ID,
			SenderID: "alice",
			Content:  "m",
			Type:     types.MessageTypeText,
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := s.ListChatMessages(ctx, chat.ID, 3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[2], page[2].ID)

	page, err = s.ListChatMessages(ctx, chat.ID, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[1].ID)

	// Zero limit falls back to the default page size.
	page, err = s.ListChatMessages(ctx, chat.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestStore_GetChatAbsent(t *testing.T) {
	s := newTestStore(t)

	chat, err := s.GetChat(context.Background(), uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, chat)
}

func TestStore_HealthCheck(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.HealthCheck(context.Background()))
}

func TestStore_WriteAfterCloseFails(t *testing.T) {
	s, err := New(config.StoreConfig{
		Path:           filepath.Join(t.TempDir(), "chat.db"),
		MaxConnections: 1,
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.CreateMessage(context.Background(), &types.NewMessageInput{
		ChatID:   "any",
		SenderID: "alice",
		Content:  "late",
		Type:     types.MessageTypeText,
	})
	assert.Error(t, err)
}
