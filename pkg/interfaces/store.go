package interfaces

import (
	"context"

	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

// MessageStore is the persistence boundary consumed by the realtime core and
// the REST layer. The delivery pipeline only depends on this interface; the
// SQLite implementation lives in internal/store and tests substitute fakes.
type MessageStore interface {
	// IsMember reports whether userID is a current member of chatID.
	// A missing chat reads as non-membership, not an error.
	IsMember(ctx context.Context, chatID, userID string) (bool, error)

	// CreateMessage persists a new message append-only and returns it with
	// the server-generated ID and creation timestamp filled in.
	CreateMessage(ctx context.Context, input *types.NewMessageInput) (*types.Message, error)

	// FindMessage returns the message with the given ID, or nil if absent.
	FindMessage(ctx context.Context, messageID string) (*types.Message, error)

	// MarkMessageRead sets isRead=true. Marking an already-read message is
	// a no-op, not an error.
	MarkMessageRead(ctx context.Context, messageID string) error

	// TouchChatActivity bumps the chat's updatedAt marker and records the
	// latest message so chat listings sort by recency.
	TouchChatActivity(ctx context.Context, chatID, lastMessageID string) error

	// Chat operations serving the REST surface.

	// CreateChat creates a chat with the given members. The creator is
	// added as admin if not already listed.
	CreateChat(ctx context.Context, name, creatorID string, memberIDs []string) (*types.Chat, error)

	// ListUserChats returns the chats userID belongs to, most recently
	// active first.
	ListUserChats(ctx context.Context, userID string) ([]*types.Chat, error)

	// GetChat returns a chat with its members, or nil if absent.
	GetChat(ctx context.Context, chatID string) (*types.Chat, error)

	// ListChatMessages returns a chronological page of a chat's messages.
	ListChatMessages(ctx context.Context, chatID string, limit, offset int) ([]*types.Message, error)

	// HealthCheck verifies store connectivity.
	HealthCheck(ctx context.Context) error

	// Close releases the underlying connection. Pending writes complete
	// before Close returns.
	Close() error
}
