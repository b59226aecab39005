package handlers

import (
	"github.com/gofiber/fiber/v2"

	"thynk/internal/services"
)

// statusPreviewLimit bounds the context preview string on the status
// endpoint.
const statusPreviewLimit = 500

// ContextHandler exposes the context pipeline for inspection and testing:
// manual compression, novelty checks, previews, and reset.
type ContextHandler struct {
	store      *services.ContextStore
	novelty    *services.NoveltyFilter
	compressor *services.CompressionService
	retriever  *services.RetrievalService
}

// NewContextHandler creates a new context handler
func NewContextHandler(store *services.ContextStore, novelty *services.NoveltyFilter, compressor *services.CompressionService, retriever *services.RetrievalService) *ContextHandler {
	return &ContextHandler{
		store:      store,
		novelty:    novelty,
		compressor: compressor,
		retriever:  retriever,
	}
}

type contextTextRequest struct {
	Text   string `json:"text"`
	UserID string `json:"user_id"`
}

func (r contextTextRequest) userID() string {
	if r.UserID == "" {
		return DefaultUserID
	}
	return r.UserID
}

// TriggerCompression manually runs context compression, useful for testing
func (h *ContextHandler) TriggerCompression(c *fiber.Ctx) error {
	var req contextTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
		})
	}

	h.compressor.Compress(c.Context(), req.Text, req.userID())

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Context processed and stored",
	})
}

// Status returns entry counts and a truncated preview of stored context
func (h *ContextHandler) Status(c *fiber.Ctx) error {
	userID := c.Query("user_id", DefaultUserID)

	summary := h.store.GetUserSummary(c.Context(), userID)
	entries, preview := h.retriever.GetContextPreview(c.Context(), userID, 10)

	if len(preview) > statusPreviewLimit {
		preview = preview[:statusPreviewLimit] + "..."
	}

	return c.JSON(fiber.Map{
		"status":          "success",
		"total_entries":   summary.TotalEntries,
		"preview_entries": entries,
		"context_preview": preview,
	})
}

// GetContext returns the full weighted context bundle and entry count
func (h *ContextHandler) GetContext(c *fiber.Ctx) error {
	userID := c.Query("user_id", DefaultUserID)

	weighted := h.retriever.GetWeightedContext(c.Context(), userID, services.DefaultRetrievalOptions())

	return c.JSON(fiber.Map{
		"status":  "success",
		"entries": len(weighted),
		"context": weighted,
	})
}

// IsDifferent checks whether text is novel enough to process
func (h *ContextHandler) IsDifferent(c *fiber.Ctx) error {
	var req contextTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
		})
	}

	content := h.novelty.IsDifferent(req.userID(), req.Text)

	return c.JSON(fiber.Map{
		"status":       "success",
		"is_different": content != "",
		"content":      content,
	})
}

// Clear removes all stored context for the user, lectures included
func (h *ContextHandler) Clear(c *fiber.Ctx) error {
	userID := c.Query("user_id", DefaultUserID)

	if !h.store.ClearUser(c.Context(), userID, true) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to clear context",
		})
	}

	h.novelty.Reset(userID)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Context cleared",
	})
}
