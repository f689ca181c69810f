package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateUserMessage validates user message content.
func ValidateUserMessage(content string) error {
	if len(content) == 0 {
		return errors.New("user_message cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("user_message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("user_message must be valid UTF-8")
	}
	return nil
}

// ValidateThreadID validates an oracle thread ID. Thread IDs are opaque, so
// only shape is checked.
func ValidateThreadID(id string) error {
	if id == "" {
		return errors.New("thread_id cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("thread_id exceeds maximum length")
	}
	if strings.ContainsAny(id, " \t\n") {
		return errors.New("thread_id contains invalid characters")
	}
	return nil
}
