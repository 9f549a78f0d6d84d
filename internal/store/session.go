package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/pkg/logger"
	"github.com/eli5-ai/guest-platform/pkg/metrics"
)

const (
	// DefaultSessionKey is the well-known storage key for a single-guest
	// deployment. Multi-guest servers bind one store per guest key.
	DefaultSessionKey = "eli5_guest_session"

	// SessionTimeout invalidates a persisted session after this much
	// inactivity.
	SessionTimeout = 24 * time.Hour
)

// SessionStore reads and writes exactly one guest Session under its key.
// Persistence failures degrade to "session not persisted": Save never
// propagates errors, and Load deletes unreadable or expired envelopes and
// reports absence.
type SessionStore struct {
	kv     KV
	key    string
	logger *logger.Logger
}

// NewSessionStore creates a session store bound to one storage key.
func NewSessionStore(kv KV, key string, log *logger.Logger) *SessionStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{kv: kv, key: key, logger: log}
}

// Key returns the storage key the store is bound to.
func (s *SessionStore) Key() string {
	return s.key
}

// GenerateSessionID produces a session identifier of the form
// guest-<timestamp>-<random-suffix>. Collisions are not actively prevented;
// the timestamp plus random composition makes them astronomically unlikely.
func GenerateSessionID() string {
	return fmt.Sprintf("guest-%d-%s", time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

// CreateSession builds a fresh session, persists it immediately, and
// returns it.
func (s *SessionStore) CreateSession() *model.Session {
	now := time.Now().UnixMilli()
	sess := &model.Session{
		SessionID:      GenerateSessionID(),
		Messages:       []model.Message{},
		CurrentLevel:   model.DefaultLevel,
		StartedAt:      now,
		MessageCount:   0,
		LastActivityAt: now,
	}
	s.Save(sess)
	metrics.SessionsCreated.Inc()
	return sess
}

// Save validates the session and writes it. On validation success the
// session's LastActivityAt is refreshed to now, as an observable effect on
// the passed-in reference, before the write is attempted. Failures are
// logged and swallowed; callers must not assume the write landed.
func (s *SessionStore) Save(sess *model.Session) {
	if err := sess.Validate(); err != nil {
		s.logger.Error("refusing to persist invalid session",
			zap.String("key", s.key),
			zap.Error(err),
		)
		metrics.SessionSaveFailures.Inc()
		return
	}

	sess.LastActivityAt = time.Now().UnixMilli()

	data, err := json.Marshal(sess)
	if err != nil {
		s.logger.Error("failed to serialize session",
			zap.String("key", s.key),
			zap.Error(err),
		)
		metrics.SessionSaveFailures.Inc()
		return
	}

	if err := s.kv.Set(s.key, string(data)); err != nil {
		s.logger.Error("failed to persist session",
			zap.String("key", s.key),
			zap.String("session_id", sess.SessionID),
			zap.Error(err),
		)
		metrics.SessionSaveFailures.Inc()
	}
}

// Load reads the persisted session. It returns nil when no session is
// stored, when the envelope fails to parse or validate (the record is
// deleted; corruption is non-recoverable), or when the session has been
// inactive past SessionTimeout (also deleted).
func (s *SessionStore) Load() *model.Session {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Error("failed to read session", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.dropCorrupt(err)
		return nil
	}
	if err := sess.Validate(); err != nil {
		s.dropCorrupt(err)
		return nil
	}

	age := time.Now().UnixMilli() - sess.LastActivityAt
	if age > SessionTimeout.Milliseconds() {
		s.logger.Info("guest session expired",
			zap.String("session_id", sess.SessionID),
			zap.Int64("idle_ms", age),
		)
		s.Clear()
		metrics.SessionsExpired.Inc()
		return nil
	}

	return &sess
}

// Clear unconditionally removes the stored envelope.
func (s *SessionStore) Clear() {
	if err := s.kv.Delete(s.key); err != nil {
		s.logger.Error("failed to clear session", zap.String("key", s.key), zap.Error(err))
	}
}

// GetOrCreate loads the persisted session or creates a fresh one. The
// boolean reports whether a new session was created.
func (s *SessionStore) GetOrCreate() (*model.Session, bool, error) {
	if s == nil || s.kv == nil {
		return nil, false, errors.New("session store is not configured")
	}
	if sess := s.Load(); sess != nil {
		return sess, false, nil
	}
	return s.CreateSession(), true, nil
}

func (s *SessionStore) dropCorrupt(cause error) {
	s.logger.Warn("discarding corrupted session envelope",
		zap.String("key", s.key),
		zap.Error(cause),
	)
	s.Clear()
	metrics.SessionsCorrupted.Inc()
}
