package middleware

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits (per IP), applied to every route
	GlobalMax        int
	GlobalExpiration time.Duration

	// Heavy pipeline limits (per IP): OCR and transcription both burn a
	// provider call per request
	CaptureMax        int
	CaptureExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		// Global: 200/min - generous for normal glasses traffic
		GlobalMax:        200,
		GlobalExpiration: 1 * time.Minute,

		// Capture/audio: 30/min (each one is an external provider call)
		CaptureMax:        30,
		CaptureExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_CAPTURE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.CaptureMax = n
		}
	}

	return config
}

// GlobalRateLimiter limits all requests per IP
func GlobalRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalMax,
		Expiration: config.GlobalExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please slow down",
			})
		},
	})
}

// CaptureRateLimiter limits the expensive OCR/transcription endpoints
func CaptureRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.CaptureMax,
		Expiration: config.CaptureExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Capture rate limit exceeded, try again shortly",
			})
		},
	})
}
