// Package llm provides explanation generation clients for LLM providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/eli5-ai/guest-platform/internal/model"
)

// MaxContentLength is the longest question the generation service accepts,
// counted in characters rather than bytes.
const MaxContentLength = 5000

// FailureReason classifies a generation failure.
type FailureReason string

const (
	ReasonEmptyContent   FailureReason = "empty_content"
	ReasonContentTooLong FailureReason = "content_too_long"
	ReasonRateLimited    FailureReason = "rate_limited"
	ReasonAuth           FailureReason = "auth"
	ReasonContentPolicy  FailureReason = "content_policy"
	ReasonTimeout        FailureReason = "timeout"
	ReasonUpstream       FailureReason = "upstream"
)

// GenerationError is the failure type surfaced by Generator implementations.
type GenerationError struct {
	Reason  FailureReason
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Explanation is one generated answer. ID is unique per call and is not a
// message id; the session engine assigns its own identifiers.
type Explanation struct {
	ID       string
	Content  string
	Level    model.EducationLevel
	Metadata model.GenerationMetadata
}

// Generator produces explanations at a requested education level.
type Generator interface {
	// Generate answers a new question at the given level.
	Generate(ctx context.Context, content string, level model.EducationLevel, sessionID string) (*Explanation, error)

	// Regenerate re-answers an earlier question at a new level.
	Regenerate(ctx context.Context, originalContent string, newLevel model.EducationLevel, sessionID string) (*Explanation, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewGenerator creates a generator based on provider.
func NewGenerator(provider Provider, apiKey string) (Generator, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicGenerator(apiKey)
	case ProviderOpenAI:
		return NewOpenAIGenerator(apiKey)
	default:
		return NewAnthropicGenerator(apiKey)
	}
}

// validateContent enforces the request preconditions shared by providers.
func validateContent(content string) *GenerationError {
	if content == "" {
		return &GenerationError{
			Reason:  ReasonEmptyContent,
			Message: "question content cannot be empty",
		}
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return &GenerationError{
			Reason:  ReasonContentTooLong,
			Message: fmt.Sprintf("question content exceeds the %d character limit", MaxContentLength),
		}
	}
	return nil
}

// wrapTransportError maps a provider call failure onto the failure taxonomy.
// statusCode is 0 when the provider error carries no HTTP status.
func wrapTransportError(err error, statusCode int) *GenerationError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &GenerationError{
			Reason:  ReasonTimeout,
			Message: "the explanation service timed out",
			Err:     err,
		}
	}
	switch statusCode {
	case 429:
		return &GenerationError{
			Reason:  ReasonRateLimited,
			Message: "the explanation service is rate limiting requests",
			Err:     err,
		}
	case 401, 403:
		return &GenerationError{
			Reason:  ReasonAuth,
			Message: "the explanation service rejected the configured credentials",
			Err:     err,
		}
	}
	return &GenerationError{
		Reason:  ReasonUpstream,
		Message: err.Error(),
		Err:     err,
	}
}
