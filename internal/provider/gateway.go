package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/ledger"
	"github.com/wisdom-keeper/backend/internal/metrics"
	"github.com/wisdom-keeper/backend/pkg/circuitbreaker"
	"github.com/wisdom-keeper/backend/pkg/logger"
)

// GatewayConfig carries the fixed generation parameters shared by every call.
type GatewayConfig struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	CallTimeout  time.Duration
}

// Gateway performs a single chat request against one named provider. It
// checks the quota before touching the network and increments the ledger only
// after a successful response.
type Gateway struct {
	registry     *Registry
	usage        *ledger.Ledger
	httpClient   *http.Client
	systemPrompt string
	maxTokens    int
	temperature  float32
	breakers     map[string]*circuitbreaker.CircuitBreaker
}

type proxyRequest struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt"`
	MaxTokens    int     `json:"maxTokens"`
	Temperature  float32 `json:"temperature"`
}

type proxyResponse struct {
	Response string `json:"response"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Error    string `json:"error"`
	Details  string `json:"details"`
}

func NewGateway(registry *Registry, usage *ledger.Ledger, cfg GatewayConfig) *Gateway {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 12 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 150
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	// Every registered provider gets a breaker, not just the ones in the
	// priority order, so Call stays safe for any valid id.
	breakers := make(map[string]*circuitbreaker.CircuitBreaker)
	for _, cfg := range registry.Configs() {
		breakers[cfg.ID] = circuitbreaker.New(cfg.ID, circuitbreaker.Config{
			MaxRequests:      2,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger.GetLogger(),
		})
	}

	return &Gateway{
		registry:     registry,
		usage:        usage,
		httpClient:   &http.Client{Timeout: cfg.CallTimeout},
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		breakers:     breakers,
	}
}

// Call sends userInput to the named provider. The quota check happens first:
// an exhausted provider fails with ErrQuotaExceeded and no network call.
func (g *Gateway) Call(ctx context.Context, providerID, userInput string) (*Reply, error) {
	cfg, ok := g.registry.Get(providerID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", providerID, ErrUnknownProvider)
	}

	if g.usage.Get(providerID) >= cfg.DailyLimit {
		metrics.QuotaExhaustedTotal.WithLabelValues(providerID).Inc()
		return nil, fmt.Errorf("%s: %w", providerID, ErrQuotaExceeded)
	}

	var reply *Reply
	start := time.Now()

	err := g.breakers[providerID].Execute(ctx, func() error {
		var err error
		reply, err = g.post(ctx, cfg, userInput)
		return err
	})

	metrics.ProviderCallDuration.WithLabelValues(providerID).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ProviderCallsTotal.WithLabelValues(providerID, "error").Inc()
		return nil, err
	}

	g.usage.Increment(providerID)
	metrics.ProviderCallsTotal.WithLabelValues(providerID, "success").Inc()

	logger.Debug("Provider call succeeded",
		zap.String("provider", providerID),
		zap.Int("response_length", len(reply.Text)),
	)

	return reply, nil
}

func (g *Gateway) post(ctx context.Context, cfg Config, userInput string) (*Reply, error) {
	body, err := json.Marshal(proxyRequest{
		Model:        cfg.Models[0],
		Prompt:       userInput,
		SystemPrompt: g.systemPrompt,
		MaxTokens:    g.maxTokens,
		Temperature:  g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{ProviderID: cfg.ID, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{ProviderID: cfg.ID, Err: err}
	}

	var parsed proxyResponse
	if resp.StatusCode != http.StatusOK {
		detail := string(raw)
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != "" {
			detail = parsed.Error
			if parsed.Details != "" {
				detail += ": " + parsed.Details
			}
		}
		return nil, &ProviderError{ProviderID: cfg.ID, StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{ProviderID: cfg.ID, Detail: err.Error()}
	}

	return &Reply{
		Text:       parsed.Response,
		ProviderID: cfg.ID,
		Model:      parsed.Model,
	}, nil
}
