package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles liveness and root requests
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Root responds with a service banner
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Thynk Backend API",
		"status":  "running",
	})
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"service":   "thynk-backend",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
