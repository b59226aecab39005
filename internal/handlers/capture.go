package handlers

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"thynk/internal/metrics"
	"thynk/internal/ocr"
	"thynk/internal/services"
)

// DefaultUserID is used when a request carries no explicit user id.
const DefaultUserID = "default"

// compressTimeout bounds the background compression call kicked off after
// a novel capture.
const compressTimeout = 90 * time.Second

// CaptureHandler handles photo captures from the glasses: OCR, novelty
// check, and background context compression.
type CaptureHandler struct {
	extractor  ocr.TextExtractor
	novelty    *services.NoveltyFilter
	compressor *services.CompressionService
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(extractor ocr.TextExtractor, novelty *services.NoveltyFilter, compressor *services.CompressionService) *CaptureHandler {
	return &CaptureHandler{extractor: extractor, novelty: novelty, compressor: compressor}
}

type captureRequest struct {
	ImageBase64 string `json:"image_base64"`
	UserID      string `json:"user_id"`
}

// AnalyzeCapture extracts text from a captured photo and, when the text is
// novel, compresses and stores it in the background. The OCR result is
// returned to the caller regardless of what the context pipeline does.
func (h *CaptureHandler) AnalyzeCapture(c *fiber.Ctx) error {
	var req captureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.ImageBase64 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "image_base64 is required",
		})
	}

	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	result, err := h.extractor.ExtractText(c.Context(), req.ImageBase64)
	if err != nil {
		log.Printf("❌ [CAPTURE] OCR failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "OCR processing failed",
		})
	}

	if strings.TrimSpace(result.Text) != "" {
		metrics.CapturesProcessed.Inc()

		novel := h.novelty.IsDifferent(userID, result.Text)
		if novel != "" {
			log.Printf("📸 [CAPTURE] New learning content for user %s: %s", userID, truncatePreview(novel, 100))
			go func(text, user string) {
				ctx, cancel := context.WithTimeout(context.Background(), compressTimeout)
				defer cancel()
				h.compressor.Compress(ctx, text, user)
			}(novel, userID)
		} else {
			metrics.CapturesDuplicate.Inc()
		}
	}

	return c.JSON(fiber.Map{
		"text":    result.Text,
		"success": result.Success,
	})
}

func truncatePreview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
