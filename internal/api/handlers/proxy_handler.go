package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/proxy"
	"github.com/wisdom-keeper/backend/pkg/logger"
)

// ProxyHandler serves /api/ai/:provider, the browser-facing pass-through
// contract: POST with the generation request, OPTIONS for preflight,
// everything else 405. CORS headers go on every response.
type ProxyHandler struct {
	upstreams map[string]proxy.Upstream
}

func NewProxyHandler(upstreams []proxy.Upstream) *ProxyHandler {
	byID := make(map[string]proxy.Upstream, len(upstreams))
	for _, u := range upstreams {
		byID[u.ID()] = u
	}
	return &ProxyHandler{upstreams: byID}
}

func (h *ProxyHandler) Handle(c *fiber.Ctx) error {
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Headers", "Content-Type")
	c.Set("Access-Control-Allow-Methods", "POST, OPTIONS")

	switch c.Method() {
	case fiber.MethodOptions:
		return c.SendStatus(fiber.StatusOK)
	case fiber.MethodPost:
	default:
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "Method not allowed",
		})
	}

	upstream, ok := h.upstreams[c.Params("provider")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown provider",
		})
	}

	var req proxy.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Prompt is required",
		})
	}

	if req.MaxTokens == 0 {
		req.MaxTokens = 150
	}
	if req.Temperature == 0 {
		req.Temperature = 0.7
	}
	if req.Model == "" {
		req.Model = upstream.DefaultModel()
	}

	text, err := upstream.Generate(c.Context(), req)
	if err != nil {
		if errors.Is(err, proxy.ErrMissingAPIKey) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "API key not configured",
			})
		}

		logger.Error("Upstream generation failed",
			zap.String("upstream", upstream.ID()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to generate response",
			"details": err.Error(),
		})
	}

	return c.JSON(proxy.Response{
		Response: text,
		Provider: upstream.ID(),
		Model:    req.Model,
	})
}
