// Package delivery implements the message delivery pipeline: validate,
// persist, then fan out. Nothing is broadcast unless persistence succeeded,
// so room subscribers never observe a message the store does not hold.
package delivery

import (
	"context"
	"time"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/rooms"
	"github.com/server-craftsman/restApi-social-media-conversation/internal/websocket"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/chaterr"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/interfaces"
	"github.com/server-craftsman/restApi-social-media-conversation/pkg/types"
)

const defaultOpTimeout = 5 * time.Second

// Pipeline routes send, read-receipt and typing operations between the
// store and the room broadcast groups. Both the realtime gateway and the
// REST layer call into the same pipeline.
type Pipeline struct {
	store     interfaces.MessageStore
	rooms     *rooms.Index
	roster    websocket.Roster
	opTimeout time.Duration
}

// NewPipeline wires the pipeline. opTimeout bounds every store call; zero
// selects the default of five seconds.
func NewPipeline(store interfaces.MessageStore, index *rooms.Index, roster websocket.Roster, opTimeout time.Duration) *Pipeline {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &Pipeline{
		store:     store,
		rooms:     index,
		roster:    roster,
		opTimeout: opTimeout,
	}
}

// Send validates, persists and broadcasts a new message. On success the
// room receives one newMessage event (sender's connection included, since it
// subscribes to its own rooms) followed by a typingStop for the sender.
// On any failure nothing is broadcast.
func (p *Pipeline) Send(ctx context.Context, input *types.NewMessageInput) (*types.Message, error) {
	if input.Type == "" {
		input.Type = types.MessageTypeText
	}
	if !types.IsValidMessageType(input.Type) {
		return nil, chaterr.InvalidInput("unknown message type %q", input.Type)
	}
	if err := types.ValidateContent(input.Content); err != nil {
		return nil, chaterr.InvalidInput("%v", err)
	}
	if types.RequiresMedia(input.Type) && (input.MediaURL == nil || *input.MediaURL == "") {
		return nil, chaterr.InvalidInput("message type %s requires a media URL", input.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()

	member, err := p.store.IsMember(ctx, input.ChatID, input.SenderID)
	if err != nil {
		return nil, chaterr.Persistence(err)
	}
	if !member {
		return nil, chaterr.PermissionDenied("user %s is not a member of chat %s", input.SenderID, input.ChatID)
	}

	if input.ReplyToMessageID != nil && *input.ReplyToMessageID != "" {
		target, err := p.store.FindMessage(ctx, *input.ReplyToMessageID)
		if err != nil {
			return nil, chaterr.Persistence(err)
		}
		if target == nil || target.ChatID != input.ChatID {
			return nil, chaterr.InvalidInput("reply target %s not found in chat %s", *input.ReplyToMessageID, input.ChatID)
		}
	}

	message, err := p.store.CreateMessage(ctx, input)
	if err != nil {
		return nil, chaterr.Persistence(err)
	}

	if err := p.store.TouchChatActivity(ctx, input.ChatID, message.ID); err != nil {
		return nil, chaterr.Persistence(err)
	}

	p.rooms.Broadcast(input.ChatID, websocket.EventNewMessage, &websocket.NewMessagePayload{
		ChatID:  input.ChatID,
		Message: message,
	}, "")
	p.rooms.Broadcast(input.ChatID, websocket.EventTypingStop, &websocket.TypingPayload{
		ChatID: input.ChatID,
		UserID: input.SenderID,
	}, "")

	return message, nil
}

// MarkRead verifies the reader's membership and flips isRead unless the
// reader is the original sender. Idempotent: re-reading an already-read
// message succeeds without touching the store again. A best-effort global
// messageRead event is emitted on success.
func (p *Pipeline) MarkRead(ctx context.Context, messageID, readerID string) (*types.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opTimeout)
	defer cancel()

	message, err := p.store.FindMessage(ctx, messageID)
	if err != nil {
		return nil, chaterr.Persistence(err)
	}
	if message == nil {
		return nil, chaterr.NotFound("message %s", messageID)
	}

	member, err := p.store.IsMember(ctx, message.ChatID, readerID)
	if err != nil {
		return nil, chaterr.Persistence(err)
	}
	if !member {
		return nil, chaterr.PermissionDenied("user %s is not a member of chat %s", readerID, message.ChatID)
	}

	// Senders do not read-receipt their own messages.
	if readerID != message.SenderID && !message.IsRead {
		if err := p.store.MarkMessageRead(ctx, messageID); err != nil {
			return nil, chaterr.Persistence(err)
		}
		message.IsRead = true
	}

	p.emitGlobal(websocket.EventMessageRead, &websocket.MessageReadPayload{
		MessageID: messageID,
		UserID:    readerID,
	})

	return message, nil
}

// Typing broadcasts a typing indicator to the chat room, excluding the
// sender's own connection. No persistence, no error path.
func (p *Pipeline) Typing(chatID, userID, senderConnID string) {
	p.rooms.Broadcast(chatID, websocket.EventTyping, &websocket.TypingPayload{
		ChatID: chatID,
		UserID: userID,
	}, senderConnID)
}

// StopTyping broadcasts the end of a typing indicator, excluding the sender.
func (p *Pipeline) StopTyping(chatID, userID, senderConnID string) {
	p.rooms.Broadcast(chatID, websocket.EventTypingStop, &websocket.TypingPayload{
		ChatID: chatID,
		UserID: userID,
	}, senderConnID)
}

// emitGlobal delivers an advisory event to every open connection. Failures
// are logged and swallowed; they do not affect data integrity.
func (p *Pipeline) emitGlobal(event string, payload interface{}) {
	data, err := websocket.Encode(event, payload)
	if err != nil {
		logging.Error().Err(err).Str("event", event).Msg("failed to encode global event")
		return
	}
	for _, conn := range p.roster.All() {
		if err := conn.SendRaw(data); err != nil {
			logging.Warn().Err(err).Str("event", event).Str("conn", conn.ID()).
				Msg("dropping global event for connection")
		}
	}
}
