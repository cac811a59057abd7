package types

import "errors"

var (
	ErrInvalidUserID      = errors.New("user ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidChatID      = errors.New("chat ID must be 1-50 characters, alphanumeric + underscore/hyphen only")
	ErrInvalidMessageType = errors.New("message type must be one of TEXT, IMAGE, VIDEO, AUDIO, FILE")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrContentTooLong     = errors.New("message content exceeds 5000 character limit")
)
