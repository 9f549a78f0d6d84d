package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5-ai/guest-platform/internal/model"
)

func baseSession(now time.Time) *model.Session {
	return &model.Session{
		SessionID:      "guest-1-abc123def",
		Messages:       []model.Message{},
		CurrentLevel:   model.LevelElementary,
		StartedAt:      now.UnixMilli(),
		MessageCount:   0,
		LastActivityAt: now.UnixMilli(),
	}
}

func TestGenerateMessageIDUniqueSameMillisecond(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateMessageID(now)
		assert.Contains(t, id, "msg-")
		assert.False(t, seen[id], "duplicate id %s within one millisecond", id)
		seen[id] = true
	}
}

func TestAddMessage(t *testing.T) {
	now := time.Now()
	sess := baseSession(now.Add(-time.Minute))

	next, msg := AddMessage(sess, NewMessage{
		Content: "explain gravity",
		Role:    model.RoleUser,
		Status:  model.StatusComplete,
	}, now)

	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, now.UnixMilli(), msg.CreatedAt)
	assert.Equal(t, "explain gravity", msg.Content)

	assert.Equal(t, 1, next.MessageCount)
	assert.Equal(t, now.UnixMilli(), next.LastActivityAt)
	require.Len(t, next.Messages, 1)

	// Input untouched.
	assert.Empty(t, sess.Messages)
	assert.Equal(t, 0, sess.MessageCount)
}

func TestAddMessageDefaultsStatusComplete(t *testing.T) {
	now := time.Now()
	_, msg := AddMessage(baseSession(now), NewMessage{
		Content: "hi",
		Role:    model.RoleUser,
	}, now)
	assert.Equal(t, model.StatusComplete, msg.Status)
}

func TestUpdateMessageTargetsOnlyMatchingID(t *testing.T) {
	now := time.Now()
	sess := baseSession(now)
	sess, first := AddMessage(sess, NewMessage{Content: "one", Role: model.RoleUser}, now)
	sess, second := AddMessage(sess, NewMessage{Content: "", Role: model.RoleAssistant, Status: model.StatusPending}, now)

	content := "Gravity pulls things down."
	status := model.StatusComplete
	next, err := UpdateMessage(sess, second.ID, model.MessagePatch{
		Content: &content,
		Status:  &status,
	}, now.Add(time.Second))
	require.NoError(t, err)

	got := next.Messages[1]
	assert.Equal(t, content, got.Content)
	assert.Equal(t, model.StatusComplete, got.Status)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, second.CreatedAt, got.CreatedAt)

	// Sibling untouched.
	assert.Equal(t, "one", next.Messages[0].Content)
	assert.Equal(t, first.ID, next.Messages[0].ID)

	// Original session untouched.
	assert.Empty(t, sess.Messages[1].Content)
	assert.Equal(t, model.StatusPending, sess.Messages[1].Status)
}

func TestUpdateMessageUnknownID(t *testing.T) {
	now := time.Now()
	sess := baseSession(now)
	sess, _ = AddMessage(sess, NewMessage{Content: "one", Role: model.RoleUser}, now)
	before := sess.LastActivityAt

	content := "ignored"
	next, err := UpdateMessage(sess, "msg-0-missing", model.MessagePatch{Content: &content}, now.Add(time.Hour))

	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.Same(t, sess, next, "unknown id must return the input session untouched")
	assert.Equal(t, before, next.LastActivityAt, "unknown id must not bump activity")
	assert.Equal(t, "one", next.Messages[0].Content)
}

func TestUpdateLevel(t *testing.T) {
	now := time.Now()
	sess := baseSession(now.Add(-time.Minute))
	sess, msg := AddMessage(sess, NewMessage{
		Content: "old answer",
		Role:    model.RoleAssistant,
		Level:   model.LevelElementary,
	}, now.Add(-time.Minute))

	next := UpdateLevel(sess, model.LevelCollege, now)

	assert.Equal(t, model.LevelCollege, next.CurrentLevel)
	assert.Equal(t, now.UnixMilli(), next.LastActivityAt)
	// Existing messages keep the level they were generated at.
	assert.Equal(t, model.LevelElementary, next.Messages[0].Level)
	assert.Equal(t, msg.ID, next.Messages[0].ID)
	assert.Equal(t, model.LevelElementary, sess.CurrentLevel)
}

func TestPrecedingUserMessage(t *testing.T) {
	now := time.Now()
	sess := baseSession(now)
	sess, u1 := AddMessage(sess, NewMessage{Content: "first question", Role: model.RoleUser}, now)
	sess, a1 := AddMessage(sess, NewMessage{Content: "first answer", Role: model.RoleAssistant, Level: model.LevelElementary}, now)
	sess, u2 := AddMessage(sess, NewMessage{Content: "second question", Role: model.RoleUser}, now)
	sess, a2 := AddMessage(sess, NewMessage{Content: "second answer", Role: model.RoleAssistant, Level: model.LevelElementary}, now)

	got := PrecedingUserMessage(sess, a2.ID)
	require.NotNil(t, got)
	assert.Equal(t, u2.ID, got.ID)
	assert.Equal(t, "second question", got.Content)

	got = PrecedingUserMessage(sess, a1.ID)
	require.NotNil(t, got)
	assert.Equal(t, u1.ID, got.ID)

	// First message has nothing before it.
	assert.Nil(t, PrecedingUserMessage(sess, u1.ID))

	// Unknown id.
	assert.Nil(t, PrecedingUserMessage(sess, "msg-0-missing"))
}
