package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_GLOBAL", "")
	t.Setenv("RATE_LIMIT_CAPTURE", "")

	config := LoadRateLimitConfig()
	if config.GlobalMax != 200 {
		t.Errorf("default global max = %d, want 200", config.GlobalMax)
	}
	if config.CaptureMax != 30 {
		t.Errorf("default capture max = %d, want 30", config.CaptureMax)
	}
}

func TestLoadRateLimitConfigOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_GLOBAL", "500")
	t.Setenv("RATE_LIMIT_CAPTURE", "10")

	config := LoadRateLimitConfig()
	if config.GlobalMax != 500 {
		t.Errorf("global max = %d, want 500", config.GlobalMax)
	}
	if config.CaptureMax != 10 {
		t.Errorf("capture max = %d, want 10", config.CaptureMax)
	}
}

func TestLoadRateLimitConfigIgnoresInvalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_GLOBAL", "not-a-number")
	t.Setenv("RATE_LIMIT_CAPTURE", "-5")

	config := LoadRateLimitConfig()
	if config.GlobalMax != 200 || config.CaptureMax != 30 {
		t.Errorf("invalid overrides should keep defaults, got %d/%d", config.GlobalMax, config.CaptureMax)
	}
}

func TestCaptureRateLimiterEnforcesMax(t *testing.T) {
	config := DefaultRateLimitConfig()
	config.CaptureMax = 2

	app := fiber.New()
	app.Post("/analyze-capture", CaptureRateLimiter(config), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/analyze-capture", nil), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status %d, want 200", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/analyze-capture", nil), -1)
	if err != nil {
		t.Fatalf("over-limit request failed: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("request over the limit: status %d, want 429", resp.StatusCode)
	}
}
