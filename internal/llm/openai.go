package llm

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/eli5-ai/guest-platform/internal/model"
)

const openaiDefaultModel = "gpt-4o"

// OpenAIGenerator generates explanations through the OpenAI API.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIGenerator creates a new OpenAI-backed generator.
func NewOpenAIGenerator(apiKey string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIGenerator{
		client:    openai.NewClient(apiKey),
		model:     openaiDefaultModel,
		maxTokens: 1024,
	}, nil
}

// Name returns the provider name.
func (g *OpenAIGenerator) Name() string {
	return "openai"
}

// Models returns available models.
func (g *OpenAIGenerator) Models() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
	}
}

// Generate answers a new question at the given level.
func (g *OpenAIGenerator) Generate(ctx context.Context, content string, level model.EducationLevel, sessionID string) (*Explanation, error) {
	if verr := validateContent(content); verr != nil {
		return nil, verr
	}
	return g.complete(ctx, levelInstructions[level], "Question: "+content, level, model.EducationLevel(""))
}

// Regenerate re-answers an earlier question at a new level.
func (g *OpenAIGenerator) Regenerate(ctx context.Context, originalContent string, newLevel model.EducationLevel, sessionID string) (*Explanation, error) {
	if verr := validateContent(originalContent); verr != nil {
		return nil, verr
	}
	prompt := "Re-explain the answer to this question at that level.\n\nQuestion: " + originalContent
	return g.complete(ctx, levelInstructions[newLevel], prompt, newLevel, newLevel)
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, user string, level, regeneratedFrom model.EducationLevel) (*Explanation, error) {
	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, wrapTransportError(err, apiErr.HTTPStatusCode)
		}
		return nil, wrapTransportError(err, 0)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &Explanation{
		ID:      uuid.NewString(),
		Content: content,
		Level:   level,
		Metadata: model.GenerationMetadata{
			TokenCount:       resp.Usage.TotalTokens,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Model:            resp.Model,
			RegeneratedFrom:  regeneratedFrom,
		},
	}, nil
}
