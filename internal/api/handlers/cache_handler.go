package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/pkg/logger"
)

// CacheInvalidator drops every cached reply; used after persona content or
// the provider stack changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type CacheHandler struct {
	cache CacheInvalidator
}

func NewCacheHandler(cache CacheInvalidator) *CacheHandler {
	return &CacheHandler{cache: cache}
}

func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	if err := h.cache.Invalidate(c.Context()); err != nil {
		logger.Error("Failed to invalidate reply cache", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to invalidate cache",
		})
	}

	return c.JSON(fiber.Map{
		"status": "invalidated",
	})
}
