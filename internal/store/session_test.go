package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/pkg/logger"
)

func newTestStore(t *testing.T) (*SessionStore, *MemoryKV) {
	t.Helper()
	kv := NewMemoryKV()
	return NewSessionStore(kv, "", logger.NewNop()), kv
}

func TestCreateSessionDefaults(t *testing.T) {
	st, kv := newTestStore(t)

	sess := st.CreateSession()
	require.NotNil(t, sess)

	assert.Contains(t, sess.SessionID, "guest-")
	assert.Equal(t, model.LevelElementary, sess.CurrentLevel)
	assert.Empty(t, sess.Messages)
	assert.Equal(t, 0, sess.MessageCount)
	assert.InDelta(t, sess.StartedAt, sess.LastActivityAt, 50)

	// Persisted immediately.
	_, ok, err := kv.Get(DefaultSessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)

	sess := st.CreateSession()
	sess.Messages = append(sess.Messages, model.Message{
		ID:        "msg-1-abc",
		Role:      model.RoleUser,
		Status:    model.StatusComplete,
		Content:   "explain gravity",
		CreatedAt: time.Now().UnixMilli(),
	})
	sess.MessageCount = 1

	before := sess.LastActivityAt
	time.Sleep(2 * time.Millisecond)
	st.Save(sess)

	// Save refreshes LastActivityAt on the passed-in reference.
	assert.Greater(t, sess.LastActivityAt, before)

	loaded := st.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, sess.SessionID, loaded.SessionID)
	assert.Equal(t, sess.CurrentLevel, loaded.CurrentLevel)
	assert.Equal(t, sess.MessageCount, loaded.MessageCount)
	assert.Equal(t, sess.LastActivityAt, loaded.LastActivityAt)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, sess.Messages[0], loaded.Messages[0])
}

func TestSaveInvalidSessionIsDropped(t *testing.T) {
	st, kv := newTestStore(t)

	bad := &model.Session{SessionID: ""} // fails validation
	st.Save(bad)

	_, ok, err := kv.Get(DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	st, _ := newTestStore(t)
	assert.Nil(t, st.Load())
}

func TestLoadExpiredSessionIsDeleted(t *testing.T) {
	st, kv := newTestStore(t)

	now := time.Now().UnixMilli()
	stale := &model.Session{
		SessionID:      "guest-1-abc",
		Messages:       []model.Message{},
		CurrentLevel:   model.LevelElementary,
		StartedAt:      now - 26*time.Hour.Milliseconds(),
		MessageCount:   0,
		LastActivityAt: now - 25*time.Hour.Milliseconds(),
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, kv.Set(DefaultSessionKey, string(data)))

	assert.Nil(t, st.Load())

	_, ok, err := kv.Get(DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok, "expired envelope should be removed")
}

func TestLoadCorruptEnvelopeIsDeleted(t *testing.T) {
	st, kv := newTestStore(t)

	require.NoError(t, kv.Set(DefaultSessionKey, "{not json"))

	assert.NotPanics(t, func() {
		assert.Nil(t, st.Load())
	})

	_, ok, err := kv.Get(DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok, "corrupt envelope should be removed")
}

func TestLoadShapeMismatchIsCorruption(t *testing.T) {
	st, kv := newTestStore(t)

	// Valid JSON, wrong shape: fails validation, not parsing.
	require.NoError(t, kv.Set(DefaultSessionKey, `{"session_id":"","messages":null}`))

	assert.Nil(t, st.Load())

	_, ok, _ := kv.Get(DefaultSessionKey)
	assert.False(t, ok)
}

func TestGetOrCreate(t *testing.T) {
	st, _ := newTestStore(t)

	first, created, err := st.GetOrCreate()
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, created)

	second, created, err := st.GetOrCreate()
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestClear(t *testing.T) {
	st, kv := newTestStore(t)

	st.CreateSession()
	st.Clear()

	_, ok, err := kv.Get(DefaultSessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, st.Load())
}

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSessionID()
		assert.Contains(t, id, "guest-")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer kv.Close()

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("k", "v1"))
	require.NoError(t, kv.Set("k", "v2"))

	v, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, kv.Delete("k"))
	_, ok, err = kv.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
