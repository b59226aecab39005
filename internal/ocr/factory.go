package ocr

import (
	"fmt"
	"strings"
)

// FactoryConfig carries the credentials the backends need.
type FactoryConfig struct {
	ClaudeKey     string
	ClaudeModel   string
	VisionBaseURL string
	VisionAPIKey  string
	VisionModel   string
}

// New creates the OCR backend selected by kind: "claude", "vision", or
// "jury". The jury fans out to every configured backend and reconciles
// through the aggregator.
func New(kind string, cfg FactoryConfig, aggregator Aggregator) (TextExtractor, error) {
	switch strings.ToLower(kind) {
	case "claude":
		return NewClaudeExtractor(cfg.ClaudeKey, cfg.ClaudeModel), nil
	case "vision":
		return NewVisionExtractor(cfg.VisionBaseURL, cfg.VisionAPIKey, cfg.VisionModel), nil
	case "jury":
		return NewJuryExtractor(aggregator,
			NewClaudeExtractor(cfg.ClaudeKey, cfg.ClaudeModel),
			NewVisionExtractor(cfg.VisionBaseURL, cfg.VisionAPIKey, cfg.VisionModel),
		), nil
	default:
		return nil, fmt.Errorf("unsupported OCR model type: %s", kind)
	}
}

// AvailableModels reports which backends are usable with the given config.
func AvailableModels(cfg FactoryConfig) []string {
	var models []string
	for _, kind := range []string{"claude", "vision", "jury"} {
		extractor, err := New(kind, cfg, nil)
		if err == nil && extractor.Available() {
			models = append(models, kind)
		}
	}
	return models
}
