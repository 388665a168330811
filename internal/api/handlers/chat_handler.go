package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wisdom-keeper/backend/internal/ledger"
	"github.com/wisdom-keeper/backend/internal/provider"
	"github.com/wisdom-keeper/backend/internal/session"
	"github.com/wisdom-keeper/backend/pkg/logger"
)

type ChatHandler struct {
	sessions *session.Manager
	usage    *ledger.Ledger
	registry *provider.Registry
}

func NewChatHandler(sessions *session.Manager, usage *ledger.Ledger, registry *provider.Registry) *ChatHandler {
	return &ChatHandler{
		sessions: sessions,
		usage:    usage,
		registry: registry,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	sess := h.sessions.Get(req.SessionID)

	msg, err := sess.Send(c.Context(), req.Message)
	if err != nil {
		if errors.Is(err, session.ErrBusy) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "A response is already being prepared for this session",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sess.ID(),
		"id":         msg.ID,
		"content":    msg.Content,
		"provider":   msg.Provider,
		"timestamp":  msg.Timestamp,
	})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "session_id is required",
		})
	}

	sess, ok := h.sessions.Lookup(sessionID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown session",
		})
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"messages":   sess.History(),
	})
}

func (h *ChatHandler) GetQuota(c *fiber.Ctx) error {
	counts := h.usage.Snapshot()

	type quotaEntry struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Used  int    `json:"used"`
		Limit int    `json:"limit"`
	}

	entries := make([]quotaEntry, 0)
	for _, cfg := range h.registry.All() {
		entries = append(entries, quotaEntry{
			ID:    cfg.ID,
			Name:  cfg.Name,
			Used:  counts[cfg.ID],
			Limit: cfg.DailyLimit,
		})
	}

	return c.JSON(fiber.Map{
		"providers": entries,
	})
}
