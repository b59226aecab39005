package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"thynk/internal/services"
)

// TutorHandler exposes step-by-step work review endpoints.
type TutorHandler struct {
	tutor *services.TutorService
}

// NewTutorHandler creates a new tutor handler
func NewTutorHandler(tutor *services.TutorService) *TutorHandler {
	return &TutorHandler{tutor: tutor}
}

type workRequest struct {
	Work   []map[string]any `json:"work"`
	Lesson map[string]any   `json:"lesson"`
}

// CheckWork reviews the student's steps and flags the first incorrect one
func (h *TutorHandler) CheckWork(c *fiber.Ctx) error {
	var req workRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.tutor.CheckWork(c.Context(), req.Work, req.Lesson)
	if err != nil {
		log.Printf("❌ [TUTOR-API] Check-work failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Work check failed",
		})
	}

	return c.JSON(result)
}

// NextStep checks accuracy and returns a hint for the next step
func (h *TutorHandler) NextStep(c *fiber.Ctx) error {
	var req workRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.tutor.NextStep(c.Context(), req.Work, req.Lesson)
	if err != nil {
		log.Printf("❌ [TUTOR-API] Next-step failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Next step generation failed",
		})
	}

	return c.JSON(result)
}
