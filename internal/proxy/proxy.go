// Package proxy forwards chat requests from the browser to the upstream LLM
// APIs, injecting the API key from server configuration. Each upstream
// honours the same request/response contract.
package proxy

import (
	"context"
	"errors"
)

// ErrMissingAPIKey marks an upstream whose key was never configured; the
// HTTP layer maps it to the misconfiguration error contract.
var ErrMissingAPIKey = errors.New("API key not configured")

// Request is the wire shape accepted from the browser.
type Request struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"systemPrompt"`
	MaxTokens    int     `json:"maxTokens"`
	Temperature  float32 `json:"temperature"`
}

// Response is the normalized answer returned to the browser.
type Response struct {
	Response string `json:"response"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Upstream generates a completion for one external LLM API.
type Upstream interface {
	ID() string
	DefaultModel() string
	Generate(ctx context.Context, req Request) (string, error)
}
