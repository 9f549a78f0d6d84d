package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/store"
	"github.com/eli5-ai/guest-platform/pkg/logger"
	"github.com/eli5-ai/guest-platform/pkg/metrics"
)

// State is the lifecycle state of the engine.
type State int

const (
	StateUninitializing State = iota
	StateReady
	StateError
)

// ErrNoSession is returned by mutation operations invoked before a session
// is loaded or after it was cleared.
var ErrNoSession = errors.New("no session loaded")

// Snapshot is the read model exposed to consumers. Session is a deep copy;
// consumers re-derive their entire view from it on every change.
type Snapshot struct {
	Session   *model.Session
	IsLoading bool
	Err       string
}

// Engine owns the in-memory session and serializes every mutation against
// the latest committed value. All intents take the engine mutex, so two
// interleaved workflows can never branch from the same stale snapshot and
// lose each other's writes.
type Engine struct {
	mu     sync.Mutex
	store  *store.SessionStore
	logger *logger.Logger

	state   State
	session *model.Session
	errMsg  string
}

// NewEngine creates an engine in the uninitializing state. Call Initialize
// before use.
func NewEngine(st *store.SessionStore, log *logger.Logger) *Engine {
	return &Engine{
		store:  st,
		logger: log,
		state:  StateUninitializing,
	}
}

// Initialize loads or creates the session and moves the engine to ready, or
// to the error state when the store fails outright. It is safe to call again
// to retry after a failure. The return value reports whether a brand-new
// session was created.
func (e *Engine) Initialize() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = StateUninitializing
	sess, created, err := e.store.GetOrCreate()
	if err != nil {
		e.logger.Error("session initialization failed", zap.Error(err))
		e.state = StateError
		e.session = nil
		e.errMsg = "Failed to initialize session"
		return false
	}

	e.state = StateReady
	e.session = sess
	e.errMsg = ""
	return created
}

// Snapshot returns the current read model.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Session:   e.session.Clone(),
		IsLoading: e.state == StateUninitializing,
		Err:       e.errMsg,
	}
}

// Session returns a deep copy of the current session, or nil.
func (e *Engine) Session() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone()
}

// Message returns a copy of the message with the given id, or nil.
func (e *Engine) Message(id string) *model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	for i := range e.session.Messages {
		if e.session.Messages[i].ID == id {
			m := e.session.Messages[i]
			if m.Metadata != nil {
				meta := *m.Metadata
				m.Metadata = &meta
			}
			return &m
		}
	}
	return nil
}

// AddMessage appends a message and persists the result. The returned message
// carries the generated id and is available to the caller synchronously,
// before any observer sees the new state. Returns nil when no session is
// loaded.
func (e *Engine) AddMessage(partial NewMessage) *model.Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		e.logger.Warn("add message with no session loaded")
		return nil
	}

	next, msg := AddMessage(e.session, partial, time.Now())
	e.commit(next)
	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()

	out := *msg
	if out.Metadata != nil {
		meta := *out.Metadata
		out.Metadata = &meta
	}
	return &out
}

// UpdateMessage patches the message with the given id against the latest
// committed session and persists the result. An unknown id leaves the
// session untouched and returns ErrMessageNotFound; this indicates a logic
// bug elsewhere or a stale update racing a clear, so it is logged loudly but
// treated as non-fatal.
func (e *Engine) UpdateMessage(id string, patch model.MessagePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoSession
	}

	next, err := UpdateMessage(e.session, id, patch, time.Now())
	if err != nil {
		e.logger.Warn("update for unknown message id",
			zap.String("message_id", id),
			zap.String("session_id", e.session.SessionID),
		)
		return err
	}
	e.commit(next)
	return nil
}

// UpdateLevel changes the session-wide default level and persists.
func (e *Engine) UpdateLevel(level model.EducationLevel) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return ErrNoSession
	}
	e.commit(UpdateLevel(e.session, level, time.Now()))
	return nil
}

// Clear removes the persisted session and resets the in-memory copy. The
// engine stays ready; a later Initialize starts a fresh session.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Clear()
	e.session = nil
}

// Migrate exports the session payload for account conversion and clears the
// guest copy. Returns nil when no session is loaded.
func (e *Engine) Migrate() *model.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	payload := e.session.Clone()
	e.store.Clear()
	e.session = nil
	metrics.SessionsMigrated.Inc()
	return payload
}

// ClearError dismisses a fatal initialization error. When a session is
// already held the engine returns to ready; otherwise initialization is
// re-run, so consumers never observe ready with no session after an error.
func (e *Engine) ClearError() {
	e.mu.Lock()
	hasSession := e.session != nil
	if hasSession {
		e.state = StateReady
		e.errMsg = ""
	}
	e.mu.Unlock()

	if !hasSession {
		e.Initialize()
	}
}

// commit replaces the in-memory session and mirrors it to the store. Callers
// hold e.mu.
func (e *Engine) commit(next *model.Session) {
	e.session = next
	e.store.Save(e.session)
}
