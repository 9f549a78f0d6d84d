// Package session implements the guest session state engine: pure mutators
// over Session values and the lifecycle state machine that owns them.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eli5-ai/guest-platform/internal/model"
)

// ErrMessageNotFound is returned by UpdateMessage when no message carries the
// given id. Callers decide whether to treat it as a logic bug or a tolerated
// stale update.
var ErrMessageNotFound = errors.New("message not found")

// NewMessage is the caller-supplied part of a message; identity fields are
// assigned by AddMessage.
type NewMessage struct {
	Content  string
	Role     model.Role
	Level    model.EducationLevel
	Status   model.MessageStatus
	Metadata *model.GenerationMetadata
}

// GenerateMessageID produces a message identifier of the form
// msg-<timestamp>-<random-suffix>. The random suffix keeps ids distinct even
// within one millisecond.
func GenerateMessageID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("msg-%d-%s", now.UnixMilli(), suffix)
}

// AddMessage appends a new message to the session, returning a new session
// value and the concrete message. The input session is not mutated. The
// returned message carries the freshly assigned id callers need for any
// follow-up update.
func AddMessage(sess *model.Session, partial NewMessage, now time.Time) (*model.Session, *model.Message) {
	msg := model.Message{
		ID:        GenerateMessageID(now),
		Content:   partial.Content,
		Role:      partial.Role,
		Level:     partial.Level,
		Status:    partial.Status,
		CreatedAt: now.UnixMilli(),
		Metadata:  partial.Metadata,
	}
	if msg.Status == "" {
		msg.Status = model.StatusComplete
	}

	next := sess.Clone()
	next.Messages = append(next.Messages, msg)
	next.MessageCount++
	next.LastActivityAt = now.UnixMilli()

	return next, &next.Messages[len(next.Messages)-1]
}

// UpdateMessage merges the patch over the message with the given id,
// returning a new session value. ID and CreatedAt are never changed. When no
// message matches, the input session is returned untouched together with
// ErrMessageNotFound; nothing is bumped or persisted on that path.
func UpdateMessage(sess *model.Session, id string, patch model.MessagePatch, now time.Time) (*model.Session, error) {
	idx := -1
	for i := range sess.Messages {
		if sess.Messages[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return sess, ErrMessageNotFound
	}

	next := sess.Clone()
	next.Messages[idx] = next.Messages[idx].Apply(patch)
	next.LastActivityAt = now.UnixMilli()

	return next, nil
}

// UpdateLevel sets the session-wide default level for newly created assistant
// messages. Existing messages keep the level they were generated at.
func UpdateLevel(sess *model.Session, level model.EducationLevel, now time.Time) *model.Session {
	next := sess.Clone()
	next.CurrentLevel = level
	next.LastActivityAt = now.UnixMilli()
	return next
}

// PrecedingUserMessage scans backward from the message with the given id and
// returns the nearest preceding user message, or nil when the id is unknown
// or no user message precedes it.
func PrecedingUserMessage(sess *model.Session, id string) *model.Message {
	idx := -1
	for i := range sess.Messages {
		if sess.Messages[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	for i := idx - 1; i >= 0; i-- {
		if sess.Messages[i].Role == model.RoleUser {
			m := sess.Messages[i]
			return &m
		}
	}
	return nil
}
