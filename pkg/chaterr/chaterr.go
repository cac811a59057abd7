// Package chaterr defines the error taxonomy shared by the delivery pipeline,
// the gateway and the REST layer. Callers classify failures with errors.Is
// and map them to transport-specific responses.
package chaterr

import (
	"errors"
	"fmt"
)

var (
	// ErrPermissionDenied means the acting user is not a member of the chat.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidInput means the request itself is malformed: missing media
	// URL on a media message, a reply reference outside the chat, bad content.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the referenced chat or message does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence wraps store failures: unreachable database, timeouts,
	// constraint violations.
	ErrPersistence = errors.New("persistence failure")
)

// PermissionDenied wraps ErrPermissionDenied with a human-readable reason.
func PermissionDenied(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// InvalidInput wraps ErrInvalidInput with a human-readable reason.
func InvalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the missing entity.
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Persistence wraps a store error so callers can classify it without
// depending on driver error types.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
