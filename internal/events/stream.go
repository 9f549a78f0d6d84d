package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/eli5-ai/guest-platform/internal/model"
)

const (
	// StreamName is the name of the session telemetry stream.
	StreamName = "ELI5_SESSIONS"

	// SubjectPrefix is the prefix for all session event subjects.
	SubjectPrefix = "eli5"
)

// EnsureStream ensures the telemetry stream exists with proper configuration.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if p == nil {
		return nil
	}

	_, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Guest session lifecycle and generation events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for a session event.
func EventSubject(sessionID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, sessionID, eventType)
}

// Publish emits a session event. Failures are logged and swallowed; telemetry
// never disturbs the session engine.
func (p *Publisher) Publish(ctx context.Context, event *model.SessionEvent) {
	if p == nil {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal session event", zap.Error(err))
		return
	}

	subject := EventSubject(event.SessionID, event.Type)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish session event",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
