package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUserID(t *testing.T) {
	assert.True(t, IsValidUserID("alice"))
	assert.True(t, IsValidUserID("user_42-a"))
	assert.False(t, IsValidUserID(""))
	assert.False(t, IsValidUserID(strings.Repeat("a", 51)))
	assert.False(t, IsValidUserID("has space"))
	assert.False(t, IsValidUserID("semi;colon"))
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent("hello"))
	assert.ErrorIs(t, ValidateContent(""), ErrEmptyContent)
	assert.ErrorIs(t, ValidateContent(strings.Repeat("a", MaxContentLength+1)), ErrContentTooLong)

	// The limit counts runes, not bytes.
	assert.NoError(t, ValidateContent(strings.Repeat("é", MaxContentLength)))
}

func TestMessageTypes(t *testing.T) {
	for _, mt := range []string{MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeAudio, MessageTypeFile} {
		assert.True(t, IsValidMessageType(mt))
	}
	assert.False(t, IsValidMessageType("GIF"))
	assert.False(t, IsValidMessageType(""))

	assert.False(t, RequiresMedia(MessageTypeText))
	assert.True(t, RequiresMedia(MessageTypeImage))
	assert.True(t, RequiresMedia(MessageTypeFile))
}
