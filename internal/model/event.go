package model

import (
	"time"
)

// EventType represents the type of session telemetry event.
type EventType string

const (
	EventSessionCreated      EventType = "session_created"
	EventSessionCleared      EventType = "session_cleared"
	EventSessionMigrated     EventType = "session_migrated"
	EventGenerationCompleted EventType = "generation_completed"
	EventGenerationFailed    EventType = "generation_failed"
)

// SessionEvent represents a telemetry event for a guest session.
type SessionEvent struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Type      EventType      `json:"type"`
	MessageID string         `json:"message_id,omitempty"`
	Level     EducationLevel `json:"level,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
