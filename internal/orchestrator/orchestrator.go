// Package orchestrator drives the two generation workflows against the
// explanation service, translating results into session mutations.
package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/events"
	"github.com/eli5-ai/guest-platform/internal/llm"
	"github.com/eli5-ai/guest-platform/internal/model"
	"github.com/eli5-ai/guest-platform/internal/session"
	"github.com/eli5-ai/guest-platform/pkg/logger"
	"github.com/eli5-ai/guest-platform/pkg/metrics"
)

// FailureText replaces a pending answer when generation of a new message
// fails. Regeneration failures keep the prior answer text instead.
const FailureText = "Sorry, I encountered an error while generating your explanation. Please try again."

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 60 * time.Second

var (
	// ErrBusy is returned when a generation is already in flight for this
	// orchestrator.
	ErrBusy = errors.New("a generation is already in progress")

	// ErrNoUserMessage is returned by RegenerateMessage when no user message
	// precedes the target.
	ErrNoUserMessage = errors.New("no preceding user message to regenerate from")
)

// Orchestrator coordinates the send and regenerate workflows for one guest
// session. The generator is injected; there is no module-level binding.
type Orchestrator struct {
	engine    *session.Engine
	generator llm.Generator
	publisher *events.Publisher
	logger    *logger.Logger
	timeout   time.Duration

	generating atomic.Bool
}

// New creates an orchestrator bound to one session engine.
func New(engine *session.Engine, generator llm.Generator, publisher *events.Publisher, log *logger.Logger, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		engine:    engine,
		generator: generator,
		publisher: publisher,
		logger:    log,
		timeout:   timeout,
	}
}

// IsGenerating reports whether a workflow is in flight. The UI uses it to
// disable input.
func (o *Orchestrator) IsGenerating() bool {
	return o.generating.Load()
}

// SendMessage runs the send-new-message workflow: append the user message,
// append a pending assistant message, call the generation service, and
// resolve the pending message to complete or error. The returned message is
// the assistant message in its final state. The generating flag is released
// on every exit path.
func (o *Orchestrator) SendMessage(ctx context.Context, content string) (*model.Message, error) {
	if !o.generating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.generating.Store(false)

	sess := o.engine.Session()
	if sess == nil {
		return nil, session.ErrNoSession
	}
	level := sess.CurrentLevel

	o.engine.AddMessage(session.NewMessage{
		Content: content,
		Role:    model.RoleUser,
		Status:  model.StatusComplete,
	})

	// The pending message's id, not its position, locates it for the
	// follow-up update; positions shift as messages are appended.
	pending := o.engine.AddMessage(session.NewMessage{
		Content: "",
		Role:    model.RoleAssistant,
		Level:   level,
		Status:  model.StatusPending,
	})
	if pending == nil {
		return nil, session.ErrNoSession
	}

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.generator.Generate(genCtx, content, level, sess.SessionID)
	if err != nil {
		o.resolveFailure(ctx, sess.SessionID, pending.ID, level, err, start, true)
		return o.engine.Message(pending.ID), nil
	}

	o.resolveSuccess(ctx, sess.SessionID, pending.ID, resp, nil, start)
	return o.engine.Message(pending.ID), nil
}

// RegenerateMessage runs the change-level workflow: update the session-wide
// default level, locate the nearest preceding user question, mark the target
// message pending, and re-generate it at the new level. On failure the
// target keeps its prior content; only status and error message change.
func (o *Orchestrator) RegenerateMessage(ctx context.Context, messageID string, newLevel model.EducationLevel) (*model.Message, error) {
	if !o.generating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.generating.Store(false)

	sess := o.engine.Session()
	if sess == nil {
		return nil, session.ErrNoSession
	}

	// The session default changes regardless of the single message being
	// regenerated.
	if err := o.engine.UpdateLevel(newLevel); err != nil {
		return nil, err
	}

	userMsg := session.PrecedingUserMessage(sess, messageID)
	if userMsg == nil {
		o.logger.Warn("regenerate without a preceding user message",
			zap.String("message_id", messageID),
			zap.String("session_id", sess.SessionID),
		)
		return nil, ErrNoUserMessage
	}

	if err := o.engine.UpdateMessage(messageID, model.MessagePatch{
		Status:       ptr(model.StatusPending),
		Level:        ptr(newLevel),
		ErrorMessage: ptr(""),
	}); err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.generator.Regenerate(genCtx, userMsg.Content, newLevel, sess.SessionID)
	if err != nil {
		o.resolveFailure(ctx, sess.SessionID, messageID, newLevel, err, start, false)
		return o.engine.Message(messageID), nil
	}

	o.resolveSuccess(ctx, sess.SessionID, messageID, resp, ptr(newLevel), start)
	return o.engine.Message(messageID), nil
}

// resolveSuccess transitions the target message to complete with the
// generated content. Any error message left by an earlier failed attempt is
// cleared; complete messages must not carry one.
func (o *Orchestrator) resolveSuccess(ctx context.Context, sessionID, messageID string, resp *llm.Explanation, level *model.EducationLevel, start time.Time) {
	patch := model.MessagePatch{
		Content:      ptr(resp.Content),
		Status:       ptr(model.StatusComplete),
		ErrorMessage: ptr(""),
		Metadata:     ptr(resp.Metadata),
	}
	patch.Level = level

	if err := o.engine.UpdateMessage(messageID, patch); err != nil {
		// The session was cleared while the request was in flight; the
		// late resolution must not resurrect state.
		o.logger.Warn("dropping stale generation result",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return
	}

	metrics.RecordGeneration(o.generator.Name(), string(resp.Level), "success",
		time.Since(start).Seconds(), resp.Metadata.TokenCount)

	o.publisher.Publish(ctx, &model.SessionEvent{
		SessionID: sessionID,
		Type:      model.EventGenerationCompleted,
		MessageID: messageID,
		Level:     resp.Level,
	})
}

// resolveFailure transitions the target message to error. For the send
// workflow the content is replaced with the fixed failure text; for
// regeneration the prior content is preserved.
func (o *Orchestrator) resolveFailure(ctx context.Context, sessionID, messageID string, level model.EducationLevel, cause error, start time.Time, replaceContent bool) {
	patch := model.MessagePatch{
		Status:       ptr(model.StatusError),
		ErrorMessage: ptr(cause.Error()),
	}
	if replaceContent {
		patch.Content = ptr(FailureText)
	}

	if err := o.engine.UpdateMessage(messageID, patch); err != nil {
		o.logger.Warn("dropping stale generation failure",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return
	}

	reason := string(llm.ReasonUpstream)
	var genErr *llm.GenerationError
	if errors.As(cause, &genErr) {
		reason = string(genErr.Reason)
	}

	o.logger.Warn("generation failed",
		zap.String("message_id", messageID),
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
		zap.Error(cause),
	)
	metrics.RecordGeneration(o.generator.Name(), string(level), "error",
		time.Since(start).Seconds(), 0)

	o.publisher.Publish(ctx, &model.SessionEvent{
		SessionID: sessionID,
		Type:      model.EventGenerationFailed,
		MessageID: messageID,
		Level:     level,
		Reason:    reason,
	})
}

func ptr[T any](v T) *T {
	return &v
}
