// Package model defines data structures for the guest session engine.
package model

import (
	"errors"
	"fmt"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MessageStatus represents the delivery state of a message.
type MessageStatus string

const (
	StatusPending  MessageStatus = "pending"
	StatusComplete MessageStatus = "complete"
	StatusError    MessageStatus = "error"
)

// GenerationMetadata carries generation statistics. The session engine passes
// it through opaquely.
type GenerationMetadata struct {
	TokenCount       int            `json:"token_count,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms,omitempty"`
	Model            string         `json:"model,omitempty"`
	RegeneratedFrom  EducationLevel `json:"regenerated_from,omitempty"`
}

// Message represents one entry in a guest conversation. ID and CreatedAt are
// assigned at creation and never change afterward.
type Message struct {
	ID           string              `json:"id"`
	Content      string              `json:"content"`
	Role         Role                `json:"role"`
	Level        EducationLevel      `json:"level,omitempty"`
	Status       MessageStatus       `json:"status"`
	CreatedAt    int64               `json:"created_at"` // unix milliseconds
	ErrorMessage string              `json:"error_message,omitempty"`
	Metadata     *GenerationMetadata `json:"metadata,omitempty"`
}

// MessagePatch describes an update to an existing message. Nil fields are
// left untouched; ID and CreatedAt are never patchable.
type MessagePatch struct {
	Content      *string
	Level        *EducationLevel
	Status       *MessageStatus
	ErrorMessage *string
	Metadata     *GenerationMetadata
}

// Validate checks the message against the schema invariants.
func (m *Message) Validate() error {
	if m.ID == "" {
		return errors.New("message id is empty")
	}
	if m.CreatedAt <= 0 {
		return errors.New("message created_at is unset")
	}
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return fmt.Errorf("unknown message role %q", m.Role)
	}
	switch m.Status {
	case StatusPending, StatusComplete, StatusError:
	default:
		return fmt.Errorf("unknown message status %q", m.Status)
	}
	if m.Content == "" && m.Status != StatusPending {
		return errors.New("empty content only permitted while pending")
	}
	if m.ErrorMessage != "" && m.Status != StatusError {
		return errors.New("error_message only permitted on error status")
	}
	if m.Level != "" {
		if m.Role != RoleAssistant {
			return errors.New("level only permitted on assistant messages")
		}
		if !m.Level.Valid() {
			return fmt.Errorf("unknown education level %q", m.Level)
		}
	}
	return nil
}

// Apply merges the patch over the message, returning a copy. Identity fields
// are preserved.
func (m Message) Apply(p MessagePatch) Message {
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Level != nil {
		m.Level = *p.Level
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.ErrorMessage != nil {
		m.ErrorMessage = *p.ErrorMessage
	}
	if p.Metadata != nil {
		meta := *p.Metadata
		m.Metadata = &meta
	}
	return m
}
