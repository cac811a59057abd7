package api

import (
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

// Request bodies for the REST surface. Validation tags mirror the rules the
// delivery pipeline enforces, so obviously bad requests are rejected before
// they reach the store.

type CreateChatRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,required,max=50"`
}

type SendMessageRequest struct {
	Content          string  `json:"content" validate:"required,max=5000"`
	Type             string  `json:"type" validate:"omitempty,oneof=TEXT IMAGE VIDEO AUDIO FILE"`
	MediaURL         *string `json:"mediaUrl" validate:"omitempty,url"`
	ReplyToMessageID *string `json:"replyToMessageId" validate:"omitempty,uuid4"`
}

type ChatResponse struct {
	Chat *types.Chat `json:"chat"`
}

type ChatListResponse struct {
	Chats []*types.Chat `json:"chats"`
}

type MessageResponse struct {
	Message *types.Message `json:"message"`
}

type MessageListResponse struct {
	Messages []*types.Message `json:"messages"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

type OnlineUsersResponse struct {
	Users []string `json:"users"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	OnlineUsers int    `json:"onlineUsers"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
