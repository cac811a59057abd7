package types

import (
	"unicode/utf8"
)

// IsValidUserID accepts 1-50 character identifiers of letters, digits,
// underscore or hyphen. UUIDs pass; empty strings and whitespace do not.
func IsValidUserID(id string) bool {
	if len(id) == 0 || len(id) > 50 {
		return false
	}
	for _, c := range id {
		if !isIDRune(c) {
			return false
		}
	}
	return true
}

// IsValidChatID applies the same character rules as user IDs. Room names are
// derived from chat IDs, so the two share an alphabet.
func IsValidChatID(id string) bool {
	return IsValidUserID(id)
}

func isIDRune(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-'
}

// ValidateContent enforces the non-empty and length rules on message content.
func ValidateContent(content string) error {
	if content == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}
