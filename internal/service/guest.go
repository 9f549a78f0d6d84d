// Package service provides the guest session business logic.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/eli5-ai/guest-platform/internal/events"
	"github.com/eli5-ai/guest-platform/internal/llm"
	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/orchestrator"
	"github.com/eli5-ai/guest-platform/internal/session"
	"github.com/eli5-ai/guest-platform/internal/store"
	"github.com/eli5-ai/guest-platform/pkg/logger"
	"github.com/eli5-ai/guest-platform/pkg/metrics"
)

const sessionKeyPrefix = "eli5:session:"

// Snapshot is the read model handed to the HTTP layer. Messages must be
// treated as read-only; the view is fully re-derived from it on every change.
type Snapshot struct {
	Session      *model.Session `json:"session"`
	IsLoading    bool           `json:"is_loading"`
	IsGenerating bool           `json:"is_generating"`
	Error        string         `json:"error,omitempty"`
	CanConvert   bool           `json:"can_convert"`
}

// GuestService owns one session engine and orchestrator per guest, lazily
// constructed and keyed by guest id. Each guest's store is bound to its own
// key, so every store instance still holds exactly one session record.
type GuestService struct {
	kv        store.KV
	generator llm.Generator
	publisher *events.Publisher
	logger    *logger.Logger
	timeout   time.Duration

	mu     sync.RWMutex
	guests map[string]*guestState
}

type guestState struct {
	engine *session.Engine
	orch   *orchestrator.Orchestrator
}

// NewGuestService creates the guest session service.
func NewGuestService(kv store.KV, generator llm.Generator, publisher *events.Publisher, log *logger.Logger, timeout time.Duration) *GuestService {
	return &GuestService{
		kv:        kv,
		generator: generator,
		publisher: publisher,
		logger:    log,
		timeout:   timeout,
		guests:    make(map[string]*guestState),
	}
}

// guest returns the engine/orchestrator pair for guestID, creating and
// initializing it on first use.
func (s *GuestService) guest(ctx context.Context, guestID string) *guestState {
	s.mu.RLock()
	g, ok := s.guests[guestID]
	s.mu.RUnlock()
	if ok {
		return g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guests[guestID]; ok {
		return g
	}

	st := store.NewSessionStore(s.kv, sessionKeyPrefix+guestID, s.logger)
	engine := session.NewEngine(st, s.logger)
	created := engine.Initialize()

	g = &guestState{
		engine: engine,
		orch:   orchestrator.New(engine, s.generator, s.publisher, s.logger, s.timeout),
	}
	s.guests[guestID] = g
	metrics.ActiveEngines.Set(float64(len(s.guests)))

	if created {
		if sess := engine.Session(); sess != nil {
			s.publisher.Publish(ctx, &model.SessionEvent{
				SessionID: sess.SessionID,
				Type:      model.EventSessionCreated,
			})
		}
	}
	return g
}

// Snapshot returns the read model for one guest.
func (s *GuestService) Snapshot(ctx context.Context, guestID string) Snapshot {
	g := s.guest(ctx, guestID)
	snap := g.engine.Snapshot()
	out := Snapshot{
		Session:      snap.Session,
		IsLoading:    snap.IsLoading,
		IsGenerating: g.orch.IsGenerating(),
		Error:        snap.Err,
	}
	if snap.Session != nil {
		out.CanConvert = snap.Session.CanConvert()
	}
	return out
}

// SendMessage runs the send workflow for one guest.
func (s *GuestService) SendMessage(ctx context.Context, guestID, content string) (*model.Message, error) {
	g := s.guest(ctx, guestID)
	return g.orch.SendMessage(ctx, content)
}

// RegenerateMessage runs the change-level workflow for one guest.
func (s *GuestService) RegenerateMessage(ctx context.Context, guestID, messageID string, level model.EducationLevel) (*model.Message, error) {
	g := s.guest(ctx, guestID)
	return g.orch.RegenerateMessage(ctx, messageID, level)
}

// UpdateLevel changes the guest's session-wide default level without
// touching any existing message.
func (s *GuestService) UpdateLevel(ctx context.Context, guestID string, level model.EducationLevel) error {
	g := s.guest(ctx, guestID)
	return g.engine.UpdateLevel(level)
}

// ClearSession destroys the guest's conversation.
func (s *GuestService) ClearSession(ctx context.Context, guestID string) {
	g := s.guest(ctx, guestID)
	sess := g.engine.Session()
	g.engine.Clear()
	if sess != nil {
		s.publisher.Publish(ctx, &model.SessionEvent{
			SessionID: sess.SessionID,
			Type:      model.EventSessionCleared,
		})
	}
}

// MigrateSession exports the guest's session payload for account conversion
// and deletes the guest copy. Returns nil when no session exists.
func (s *GuestService) MigrateSession(ctx context.Context, guestID string) *model.Session {
	g := s.guest(ctx, guestID)
	payload := g.engine.Migrate()
	if payload != nil {
		s.publisher.Publish(ctx, &model.SessionEvent{
			SessionID: payload.SessionID,
			Type:      model.EventSessionMigrated,
			Metadata:  map[string]any{"message_count": payload.MessageCount},
		})
	}
	return payload
}
