package handlers

import (
	"encoding/base64"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"thynk/internal/audio"
	"thynk/internal/services"
)

// AudioHandler handles lecture-mode audio processing: transcription
// followed by lecture context compression.
type AudioHandler struct {
	transcriber *audio.Service
	compressor  *services.CompressionService
}

// NewAudioHandler creates a new audio handler
func NewAudioHandler(transcriber *audio.Service, compressor *services.CompressionService) *AudioHandler {
	return &AudioHandler{transcriber: transcriber, compressor: compressor}
}

type processAudioRequest struct {
	AudioBase64 string `json:"audio_base64"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
}

// ProcessAudio transcribes a lecture audio segment and stores a compressed
// lecture entry. Unlike photo captures, the compressed content is returned
// to the caller for immediate display.
func (h *AudioHandler) ProcessAudio(c *fiber.Ctx) error {
	var req processAudioRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.AudioBase64 == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "audio_base64 is required",
		})
	}

	userID := req.UserID
	if userID == "" {
		userID = DefaultUserID
	}

	audioBytes, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid base64 audio data",
		})
	}

	if h.transcriber == nil || !h.transcriber.Available() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Audio transcription service not available. Please configure a Whisper provider.",
		})
	}

	resp, err := h.transcriber.Transcribe(c.Context(), audioBytes, "segment.wav")
	if err != nil {
		log.Printf("❌ [AUDIO-API] Transcription failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Transcription failed",
		})
	}

	transcript := strings.TrimSpace(resp.Text)
	if transcript == "" {
		return c.JSON(fiber.Map{
			"transcript":         "",
			"compressed_content": "",
			"compression_stats": fiber.Map{
				"original_length":   0,
				"compressed_length": 0,
			},
			"success": true,
		})
	}

	stats := h.compressor.CompressLecture(c.Context(), transcript, userID, req.SessionID, resp.Confidence)

	return c.JSON(fiber.Map{
		"transcript":         transcript,
		"compressed_content": stats.CompressedContent,
		"compression_stats": fiber.Map{
			"original_length":   stats.OriginalLength,
			"compressed_length": stats.CompressedLength,
		},
		"success": true,
	})
}
