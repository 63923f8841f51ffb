package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/stayhub/booking-api/internal/config"
)

// Assistant produces a suggested first response for a new support ticket.
// Implementations are best-effort: callers treat failures as a degraded
// path, never as a reason to fail ticket creation.
type Assistant interface {
	SuggestReply(ctx context.Context, subject, message string) (string, error)
}

// OpenAIAssistant calls the OpenAI chat-completion API.
type OpenAIAssistant struct {
	client      *openai.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration
}

// NewOpenAIAssistant builds the gateway from configuration. Returns nil when
// no API key is configured so the caller can wire a disabled assistant.
func NewOpenAIAssistant(cfg config.OpenAIConfig) *OpenAIAssistant {
	if cfg.APIKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &OpenAIAssistant{
		client:      &client,
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout(),
	}
}

// SuggestReply drafts a first response for the given ticket content. The
// call is bounded by the configured timeout.
func (a *OpenAIAssistant) SuggestReply(ctx context.Context, subject, message string) (string, error) {
	prompt := fmt.Sprintf(`You are a support agent for a hotel booking platform.
Draft a short, polite first response to the customer request below.
Do not promise refunds or commit to timelines.

Subject: %s

Message:
%s`, subject, message)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	response, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       a.model,
		MaxTokens:   openai.Int(a.maxTokens),
		Temperature: openai.Float(a.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}
