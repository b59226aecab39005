package handlers

import (
	"github.com/gofiber/fiber/v2"

	"thynk/internal/services"
)

// HintHandler serves the frontend's "get hint" button.
type HintHandler struct {
	hints *services.HintService
}

// NewHintHandler creates a new hint handler
func NewHintHandler(hints *services.HintService) *HintHandler {
	return &HintHandler{hints: hints}
}

type hintRequest struct {
	Learned  string `json:"learned"`
	Question string `json:"question"`
	UserID   string `json:"user_id"`
}

// GiveHint generates a hint from the weighted context plus the current
// session. This endpoint always returns a displayable hint body; provider
// failures degrade inside the hint service, never to a 5xx here.
func (h *HintHandler) GiveHint(c *fiber.Ctx) error {
	var req hintRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
		})
	}

	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	hint := h.hints.GiveHint(c.Context(), userID, req.Learned, req.Question)

	return c.JSON(fiber.Map{
		"hint":   hint,
		"status": "success",
	})
}
