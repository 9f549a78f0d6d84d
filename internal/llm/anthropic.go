package llm

import (
	"context"
	"errors"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/eli5-ai/guest-platform/internal/model"
)

const anthropicDefaultModel = "claude-3-5-sonnet-20241022"

// AnthropicGenerator generates explanations through the Anthropic API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicGenerator creates a new Anthropic-backed generator.
func NewAnthropicGenerator(apiKey string) (*AnthropicGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicGenerator{
		client:    client,
		model:     anthropicDefaultModel,
		maxTokens: 1024,
	}, nil
}

// Name returns the provider name.
func (g *AnthropicGenerator) Name() string {
	return "anthropic"
}

// Models returns available models.
func (g *AnthropicGenerator) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-opus-20240229",
	}
}

// Generate answers a new question at the given level.
func (g *AnthropicGenerator) Generate(ctx context.Context, content string, level model.EducationLevel, sessionID string) (*Explanation, error) {
	if verr := validateContent(content); verr != nil {
		return nil, verr
	}
	return g.complete(ctx, buildPrompt(content, level), level, model.EducationLevel(""))
}

// Regenerate re-answers an earlier question at a new level.
func (g *AnthropicGenerator) Regenerate(ctx context.Context, originalContent string, newLevel model.EducationLevel, sessionID string) (*Explanation, error) {
	if verr := validateContent(originalContent); verr != nil {
		return nil, verr
	}
	return g.complete(ctx, buildRegeneratePrompt(originalContent, newLevel), newLevel, newLevel)
}

func (g *AnthropicGenerator) complete(ctx context.Context, prompt string, level, regeneratedFrom model.EducationLevel) (*Explanation, error) {
	start := time.Now()

	messages := []anthropic.MessageParam{
		{
			Role: anthropic.F(anthropic.MessageParamRoleUser),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(prompt),
				},
			}),
		},
	}

	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(g.model),
		MaxTokens: anthropic.F(int64(g.maxTokens)),
		Messages:  anthropic.F(messages),
	})
	if err != nil {
		return nil, wrapTransportError(err, 0)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}

	return &Explanation{
		ID:      uuid.NewString(),
		Content: content,
		Level:   level,
		Metadata: model.GenerationMetadata{
			TokenCount:       int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			Model:            resp.Model,
			RegeneratedFrom:  regeneratedFrom,
		},
	}, nil
}
