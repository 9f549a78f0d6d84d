package model

import (
	"errors"
	"fmt"
)

// ConversionThreshold is the message count at which the UI may offer account
// conversion.
const ConversionThreshold = 3

// Session is one guest conversation. It is the sole record persisted under a
// guest's storage key, serialized as JSON with no version field; a shape
// mismatch on read is treated as corruption.
type Session struct {
	SessionID    string         `json:"session_id"`
	Messages     []Message      `json:"messages"`
	CurrentLevel EducationLevel `json:"current_level"`
	StartedAt    int64          `json:"started_at"` // unix milliseconds

	// MessageCount is a monotonic counter of messages ever added. It equals
	// len(Messages) today, but a future delete operation must not decrement it.
	MessageCount int `json:"message_count"`

	LastActivityAt int64 `json:"last_activity_at"` // unix milliseconds, drives expiry
}

// CanConvert reports whether the session has enough activity to offer
// account conversion.
func (s *Session) CanConvert() bool {
	return s.MessageCount >= ConversionThreshold
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		if m.Metadata != nil {
			meta := *m.Metadata
			m.Metadata = &meta
		}
		out.Messages[i] = m
	}
	return &out
}

// Validate checks the session against the schema invariants.
func (s *Session) Validate() error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.SessionID == "" {
		return errors.New("session id is empty")
	}
	if !s.CurrentLevel.Valid() {
		return fmt.Errorf("unknown current level %q", s.CurrentLevel)
	}
	if s.StartedAt <= 0 {
		return errors.New("session started_at is unset")
	}
	if s.LastActivityAt <= 0 {
		return errors.New("session last_activity_at is unset")
	}
	if s.MessageCount < 0 {
		return errors.New("session message_count is negative")
	}
	for i := range s.Messages {
		if err := s.Messages[i].Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}
