package config

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Port     string
	RedisURL string

	// Completion provider (Anthropic) configuration
	ClaudeKey   string
	ClaudeModel string

	// OCR backend selection: "claude", "vision", or "jury"
	OCRModel      string
	VisionBaseURL string
	VisionAPIKey  string
	VisionModel   string

	// Whisper transcription providers
	GroqAPIKey   string
	OpenAIAPIKey string

	// Novelty filter tuning
	SimilarityThreshold float64

	// Weighted retrieval tuning
	MaxContextEntries int
	LectureBaseWeight float64
	DecayFactor       float64
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8000"),
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		ClaudeKey:   getEnv("CLAUDE_KEY", ""),
		ClaudeModel: getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),

		OCRModel:      getEnv("OCR_MODEL", "claude"),
		VisionBaseURL: getEnv("VISION_BASE_URL", "https://api.openai.com/v1"),
		VisionAPIKey:  getEnv("VISION_API_KEY", ""),
		VisionModel:   getEnv("VISION_MODEL", "gpt-4o-mini"),

		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),

		SimilarityThreshold: getFloatEnv("SIMILARITY_THRESHOLD", 0.3),

		MaxContextEntries: getIntEnv("MAX_CONTEXT_ENTRIES", 50),
		LectureBaseWeight: getFloatEnv("LECTURE_BASE_WEIGHT", 0.3),
		DecayFactor:       getFloatEnv("DECAY_FACTOR", 0.1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
