// Package ocr extracts text from captured images through interchangeable
// provider backends selected by a configuration key.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Result is the simplified OCR outcome exposed to callers.
type Result struct {
	Text    string `json:"text"`
	Success bool   `json:"success"`
}

// TextExtractor is the capability interface every OCR backend implements.
type TextExtractor interface {
	// ExtractText extracts text from a base64 encoded image.
	ExtractText(ctx context.Context, imageBase64 string) (Result, error)

	// Available reports whether the backend is configured and usable.
	Available() bool

	// Name identifies the backend for logging.
	Name() string
}

// detectMediaType sniffs the image MIME type from the decoded payload.
// Falls back to PNG when the data is unrecognized.
func detectMediaType(imageBase64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	mediaType := http.DetectContentType(data)
	switch mediaType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return mediaType, nil
	default:
		return "image/png", nil
	}
}
