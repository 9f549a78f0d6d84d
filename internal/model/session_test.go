package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSession() *Session {
	now := time.Now().UnixMilli()
	return &Session{
		SessionID:      "guest-123-abc",
		Messages:       []Message{},
		CurrentLevel:   LevelElementary,
		StartedAt:      now,
		MessageCount:   0,
		LastActivityAt: now,
	}
}

func TestCanConvertThreshold(t *testing.T) {
	sess := validSession()

	for _, count := range []int{0, 1, 2} {
		sess.MessageCount = count
		assert.False(t, sess.CanConvert(), "message_count=%d", count)
	}
	for _, count := range []int{3, 4, 10} {
		sess.MessageCount = count
		assert.True(t, sess.CanConvert(), "message_count=%d", count)
	}
}

func TestSessionValidate(t *testing.T) {
	sess := validSession()
	require.NoError(t, sess.Validate())

	bad := validSession()
	bad.SessionID = ""
	assert.Error(t, bad.Validate())

	bad = validSession()
	bad.CurrentLevel = "kindergarten"
	assert.Error(t, bad.Validate())

	bad = validSession()
	bad.MessageCount = -1
	assert.Error(t, bad.Validate())

	bad = validSession()
	bad.Messages = []Message{{ID: "msg-1", Role: "alien", Status: StatusComplete, Content: "x", CreatedAt: 1}}
	assert.Error(t, bad.Validate())
}

func TestMessageValidate(t *testing.T) {
	now := time.Now().UnixMilli()

	ok := Message{ID: "msg-1", Role: RoleUser, Status: StatusComplete, Content: "hi", CreatedAt: now}
	require.NoError(t, ok.Validate())

	pending := Message{ID: "msg-2", Role: RoleAssistant, Status: StatusPending, Level: LevelHigh, CreatedAt: now}
	require.NoError(t, pending.Validate())

	// Empty content is only permitted while pending.
	empty := Message{ID: "msg-3", Role: RoleAssistant, Status: StatusComplete, CreatedAt: now}
	assert.Error(t, empty.Validate())

	// Level is only permitted on assistant messages.
	leveledUser := Message{ID: "msg-4", Role: RoleUser, Status: StatusComplete, Content: "x", Level: LevelHigh, CreatedAt: now}
	assert.Error(t, leveledUser.Validate())

	// An error message requires error status.
	errNoStatus := Message{ID: "msg-5", Role: RoleAssistant, Status: StatusComplete, Content: "x", ErrorMessage: "boom", CreatedAt: now}
	assert.Error(t, errNoStatus.Validate())
}

func TestSessionCloneIsDeep(t *testing.T) {
	sess := validSession()
	sess.Messages = []Message{
		{ID: "msg-1", Role: RoleAssistant, Status: StatusComplete, Content: "a", Level: LevelHigh, CreatedAt: 1, Metadata: &GenerationMetadata{TokenCount: 5}},
	}
	sess.MessageCount = 1

	clone := sess.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages[0].Metadata.TokenCount = 99

	assert.Equal(t, "a", sess.Messages[0].Content)
	assert.Equal(t, 5, sess.Messages[0].Metadata.TokenCount)
}

func TestMessageApplyPreservesIdentity(t *testing.T) {
	msg := Message{ID: "msg-1", Role: RoleAssistant, Status: StatusPending, CreatedAt: 42, Level: LevelElementary}

	content := "done"
	status := StatusComplete
	out := msg.Apply(MessagePatch{Content: &content, Status: &status})

	assert.Equal(t, "msg-1", out.ID)
	assert.Equal(t, int64(42), out.CreatedAt)
	assert.Equal(t, "done", out.Content)
	assert.Equal(t, StatusComplete, out.Status)
	assert.Equal(t, LevelElementary, out.Level)
}
