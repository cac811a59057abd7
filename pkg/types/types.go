package types

import (
	"time"
)

// Message type constants match the values persisted by the store and carried
// on the wire, so they must not change without a schema migration.
const (
	MessageTypeText  = "TEXT"
	MessageTypeImage = "IMAGE"
	MessageTypeVideo = "VIDEO"
	MessageTypeAudio = "AUDIO"
	MessageTypeFile  = "FILE"
)

// MaxContentLength is the upper bound on message content, in runes.
const MaxContentLength = 5000

// Presence status values broadcast on the userStatus event.
const (
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

// Chat type constants. A chat with more than two members is a group.
const (
	ChatTypeDirect = "DIRECT"
	ChatTypeGroup  = "GROUP"
)

// Chat member roles. The creator of a chat is its admin.
const (
	MemberRoleAdmin  = "ADMIN"
	MemberRoleMember = "MEMBER"
)

// Message is a persisted chat message. Instances are immutable after creation
// except for IsRead, which is flipped by the read-receipt operation.
type Message struct {
	ID               string    `json:"id" db:"id"`
	ChatID           string    `json:"chatId" db:"chat_id"`
	SenderID         string    `json:"senderId" db:"sender_id"`
	Content          string    `json:"content" db:"content"`
	Type             string    `json:"type" db:"type"`
	MediaURL         *string   `json:"mediaUrl,omitempty" db:"media_url"`
	ReplyToMessageID *string   `json:"replyToMessageId,omitempty" db:"reply_to_message_id"`
	IsRead           bool      `json:"isRead" db:"is_read"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
}

// Chat is a conversation container. UpdatedAt doubles as the last-activity
// marker and orders chat listings.
type Chat struct {
	ID            string       `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Type          string       `json:"type" db:"type"`
	LastMessageID *string      `json:"lastMessageId,omitempty" db:"last_message_id"`
	CreatedAt     time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time    `json:"updatedAt" db:"updated_at"`
	Members       []ChatMember `json:"members,omitempty"`
}

// ChatMember records one user's membership in a chat.
type ChatMember struct {
	UserID   string    `json:"userId" db:"user_id"`
	ChatID   string    `json:"chatId" db:"chat_id"`
	Role     string    `json:"role" db:"role"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// NewMessageInput carries the caller-supplied fields of a send request.
// Server-side fields (id, timestamp, isRead) are assigned at persist time.
type NewMessageInput struct {
	ChatID           string
	SenderID         string
	Content          string
	Type             string
	MediaURL         *string
	ReplyToMessageID *string
}

// IsValidMessageType reports whether t is one of the five persisted types.
func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// RequiresMedia reports whether messages of type t must carry a media URL.
func RequiresMedia(t string) bool {
	return IsValidMessageType(t) && t != MessageTypeText
}
