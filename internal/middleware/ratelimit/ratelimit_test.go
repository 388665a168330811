package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newApp(maxPerMinute int) (*fiber.App, *RateLimiter) {
	rl := New(Config{
		MaxRequestsPerMinute: maxPerMinute,
		WindowDuration:       time.Minute,
		Logger:               zap.NewNop(),
	})

	app := fiber.New()
	app.Use(rl.Middleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	return app, rl
}

func TestAllowsWithinBudget(t *testing.T) {
	app, rl := newApp(5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("request %d rejected with %d", i, resp.StatusCode)
		}
	}
}

func TestRejectsOverBudget(t *testing.T) {
	app, rl := newApp(2)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil)); err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 429 {
		t.Fatalf("expected 429 once the budget is spent, got %d", resp.StatusCode)
	}
}

func TestSessionsHaveSeparateBudgets(t *testing.T) {
	app, rl := newApp(1)
	defer rl.Stop()

	first := httptest.NewRequest("GET", "/ping", nil)
	first.Header.Set("X-Session-ID", "alpha")
	if resp, _ := app.Test(first); resp.StatusCode != 200 {
		t.Fatalf("first session rejected with %d", resp.StatusCode)
	}

	second := httptest.NewRequest("GET", "/ping", nil)
	second.Header.Set("X-Session-ID", "beta")
	if resp, _ := app.Test(second); resp.StatusCode != 200 {
		t.Fatalf("second session must have its own budget, got %d", resp.StatusCode)
	}
}
