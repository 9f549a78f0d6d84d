package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/eli5-ai/guest-platform/internal/model"
)

// maxContentLength mirrors the generation service's question limit so bad
// requests are rejected before a workflow starts.
const maxContentLength = 5000

// ValidateContent validates question content. The length limit counts
// characters, not bytes, so multibyte questions get the full budget.
func ValidateContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return errors.New("content exceeds maximum length")
	}
	return nil
}

// ValidateLevel validates an education level name.
func ValidateLevel(level string) error {
	if _, err := model.ParseLevel(level); err != nil {
		return errors.New("unknown education level")
	}
	return nil
}

// ValidateMessageID validates a message ID.
func ValidateMessageID(id string) error {
	if !strings.HasPrefix(id, "msg-") || len(id) > 64 {
		return errors.New("invalid message ID format")
	}
	return nil
}

// ValidateGuestID validates a guest ID.
func ValidateGuestID(id string) error {
	if len(id) == 0 {
		return errors.New("guest ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("guest ID exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("guest ID must be valid UTF-8")
	}
	return nil
}
