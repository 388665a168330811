package proxy

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/pkg/logger"
	"github.com/wisdom-keeper/backend/pkg/retry"
)

// OpenAICompatible drives any upstream that speaks the OpenAI chat-completion
// dialect: Groq, Together AI, and OpenRouter all do.
type OpenAICompatible struct {
	id           string
	client       *openai.Client
	defaultModel string
	retryConfig  retry.Config
}

func NewOpenAICompatible(id, apiKey, baseURL, defaultModel string) *OpenAICompatible {
	var client *openai.Client
	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		client = openai.NewClientWithConfig(cfg)
	}

	return &OpenAICompatible{
		id:           id,
		client:       client,
		defaultModel: defaultModel,
		retryConfig: retry.Config{
			MaxAttempts:    2,
			InitialDelay:   300 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
	}
}

func (u *OpenAICompatible) ID() string {
	return u.id
}

func (u *OpenAICompatible) DefaultModel() string {
	return u.defaultModel
}

func (u *OpenAICompatible) Generate(ctx context.Context, req Request) (string, error) {
	if u.client == nil {
		return "", ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = u.defaultModel
	}

	text, err := retry.DoWithResult(ctx, u.retryConfig, func() (string, error) {
		resp, err := u.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: req.SystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Prompt,
				},
			},
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			TopP:        0.9,
		})
		if err != nil {
			return "", fmt.Errorf("failed to create completion: %w", err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("upstream returned no choices")
		}

		return resp.Choices[0].Message.Content, nil
	})
	if err != nil {
		return "", err
	}

	logger.Debug("Upstream completion generated",
		zap.String("upstream", u.id),
		zap.String("model", model),
		zap.Int("response_length", len(text)),
	)

	return strings.TrimSpace(text), nil
}
