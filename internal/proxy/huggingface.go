package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wisdom-keeper/backend/pkg/logger"
	"github.com/wisdom-keeper/backend/pkg/retry"

	"go.uber.org/zap"
)

// HuggingFace calls the Inference API, which has its own wire shape instead
// of the OpenAI dialect.
type HuggingFace struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
	retryConfig  retry.Config
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
	DoSample       bool    `json:"do_sample"`
	TopP           float32 `json:"top_p"`
}

type hfResult struct {
	GeneratedText string `json:"generated_text"`
}

func NewHuggingFace(apiKey, baseURL, defaultModel string) *HuggingFace {
	return &HuggingFace{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
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

func (u *HuggingFace) ID() string {
	return "huggingface"
}

func (u *HuggingFace) DefaultModel() string {
	return u.defaultModel
}

func (u *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
	if u.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = u.defaultModel
	}

	// The inference API takes one flattened prompt, not a message list.
	fullPrompt := req.SystemPrompt + "\n\nUser: " + req.Prompt + "\nAssistant:"

	body, err := json.Marshal(hfRequest{
		Inputs: fullPrompt,
		Parameters: hfParameters{
			MaxNewTokens:   req.MaxTokens,
			Temperature:    req.Temperature,
			ReturnFullText: false,
			DoSample:       true,
			TopP:           0.9,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", u.baseURL, model)

	text, err := retry.DoWithResult(ctx, u.retryConfig, func() (string, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+u.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := u.httpClient.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("inference request failed: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("inference API returned status %d", resp.StatusCode)
		}

		var results []hfResult
		if err := json.Unmarshal(raw, &results); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		if len(results) == 0 {
			return "", fmt.Errorf("inference API returned no results")
		}

		return results[0].GeneratedText, nil
	})
	if err != nil {
		return "", err
	}

	// DialoGPT-style models echo and ramble; keep the first line only.
	text = strings.TrimSpace(strings.ReplaceAll(text, fullPrompt, ""))
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}

	logger.Debug("Inference completion generated",
		zap.String("model", model),
		zap.Int("response_length", len(text)),
	)

	return text, nil
}
