package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/wisdom-keeper/backend/internal/proxy"
)

type stubUpstream struct {
	id   string
	text string
	err  error

	lastReq proxy.Request
}

func (s *stubUpstream) ID() string           { return s.id }
func (s *stubUpstream) DefaultModel() string { return "stub-model" }

func (s *stubUpstream) Generate(_ context.Context, req proxy.Request) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func newProxyApp(upstream proxy.Upstream) *fiber.App {
	app := fiber.New()
	app.All("/api/ai/:provider", NewProxyHandler([]proxy.Upstream{upstream}).Handle)
	return app
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func TestProxySuccess(t *testing.T) {
	upstream := &stubUpstream{id: "groq", text: "generated text"}
	app := newProxyApp(upstream)

	req := httptest.NewRequest("POST", "/api/ai/groq", strings.NewReader(`{"prompt":"hello","model":"gemma2-9b-it"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("missing CORS origin header, got %q", got)
	}

	body := decodeBody(t, resp.Body)
	if body["response"] != "generated text" {
		t.Fatalf("unexpected response payload: %+v", body)
	}
	if body["provider"] != "groq" || body["model"] != "gemma2-9b-it" {
		t.Fatalf("unexpected provenance: %+v", body)
	}

	// Defaults applied server side.
	if upstream.lastReq.MaxTokens != 150 {
		t.Fatalf("expected default maxTokens, got %d", upstream.lastReq.MaxTokens)
	}
}

func TestProxyPreflight(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq"})

	req := httptest.NewRequest("OPTIONS", "/api/ai/groq", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("preflight must return 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Fatalf("unexpected allow-methods %q", got)
	}
}

func TestProxyMethodNotAllowed(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq"})

	req := httptest.NewRequest("GET", "/api/ai/groq", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 405 {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp.Body); body["error"] != "Method not allowed" {
		t.Fatalf("unexpected error payload: %+v", body)
	}
}

func TestProxyMissingPrompt(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq"})

	req := httptest.NewRequest("POST", "/api/ai/groq", strings.NewReader(`{"model":"gemma2-9b-it"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp.Body); body["error"] != "Prompt is required" {
		t.Fatalf("unexpected error payload: %+v", body)
	}
}

func TestProxyMissingAPIKey(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq", err: proxy.ErrMissingAPIKey})

	req := httptest.NewRequest("POST", "/api/ai/groq", strings.NewReader(`{"prompt":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp.Body); body["error"] != "API key not configured" {
		t.Fatalf("unexpected error payload: %+v", body)
	}
}

func TestProxyUpstreamFailure(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq", err: errors.New("rate limited")})

	req := httptest.NewRequest("POST", "/api/ai/groq", strings.NewReader(`{"prompt":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp.Body)
	if body["error"] != "Failed to generate response" {
		t.Fatalf("unexpected error payload: %+v", body)
	}
	if body["details"] != "rate limited" {
		t.Fatalf("expected failure details, got %+v", body)
	}
}

func TestProxyUnknownProvider(t *testing.T) {
	app := newProxyApp(&stubUpstream{id: "groq"})

	req := httptest.NewRequest("POST", "/api/ai/mystery", strings.NewReader(`{"prompt":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
