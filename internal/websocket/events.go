package websocket

import (
	json "github.com/goccy/go-json"
)

// Client -> server event names.
const (
	EventJoin        = "join"
	EventLeave       = "leave"
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventSendMessage = "sendMessage"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventMarkAsRead  = "markAsRead"
)

// Server -> client event names.
const (
	EventUserStatus  = "userStatus"
	EventNewMessage  = "newMessage"
	EventTypingStop  = "typingStop"
	EventMessageRead = "messageRead"
	EventError       = "error"
)

// Envelope is the wire frame for every realtime event in both directions.
// Data stays raw on decode so each handler unmarshals its own payload type.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client -> server payloads. One struct per event keeps the contract
// checkable at compile time instead of passing untyped maps around.

type JoinPayload struct {
	UserID string `json:"userId"`
}

type LeavePayload struct {
	UserID string `json:"userId"`
}

type JoinChatPayload struct {
	ChatID string `json:"chatId"`
}

type LeaveChatPayload struct {
	ChatID string `json:"chatId"`
}

type SendMessageBody struct {
	Content          string  `json:"content"`
	Type             string  `json:"type,omitempty"`
	MediaURL         *string `json:"mediaUrl,omitempty"`
	ReplyToMessageID *string `json:"replyToMessageId,omitempty"`
}

type SendMessagePayload struct {
	ChatID  string          `json:"chatId"`
	UserID  string          `json:"userId"`
	Message SendMessageBody `json:"message"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type MarkAsReadPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

// Server -> client payloads.

type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type NewMessagePayload struct {
	ChatID  string      `json:"chatId"`
	Message interface{} `json:"message"`
}

type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Encode frames an event and payload into wire bytes. Broadcast paths encode
// once and hand the same bytes to every recipient.
func Encode(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{Event: event, Data: data})
}

// Decode parses an inbound frame. The payload stays raw.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, ErrMalformedEvent
	}
	if env.Event == "" {
		return nil, ErrMalformedEvent
	}
	return &env, nil
}

// DecodePayload unmarshals an envelope's data into the event's payload type.
func DecodePayload(env *Envelope, v interface{}) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return ErrMalformedEvent
	}
	return nil
}
