package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

const claudeOCRPrompt = `Extract all text visible in this image. Include mathematical expressions, equations, and handwritten work. If any mathematical expressions or equations appear, format them using MathJAX: use $...$ for inline math and $$...$$ for display equations. Return ONLY the extracted text with no commentary.`

// ClaudeExtractor reads text from images using the Anthropic Messages API
// with an image content block.
type ClaudeExtractor struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClaudeExtractor creates a Claude-backed OCR extractor
func NewClaudeExtractor(apiKey, model string) *ClaudeExtractor {
	return &ClaudeExtractor{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether the API key is configured
func (e *ClaudeExtractor) Available() bool {
	return e.apiKey != ""
}

// Name identifies the backend
func (e *ClaudeExtractor) Name() string {
	return "claude"
}

// ExtractText extracts text from a base64 encoded image
func (e *ClaudeExtractor) ExtractText(ctx context.Context, imageBase64 string) (Result, error) {
	if !e.Available() {
		return Result{}, fmt.Errorf("claude OCR not available: CLAUDE_KEY not set")
	}

	mediaType, err := detectMediaType(imageBase64)
	if err != nil {
		return Result{}, err
	}

	requestBody := map[string]any{
		"model":      e.model,
		"max_tokens": 1024,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "image",
						"source": map[string]any{
							"type":       "base64",
							"media_type": mediaType,
							"data":       imageBase64,
						},
					},
					{
						"type": "text",
						"text": claudeOCRPrompt,
					},
				},
			},
		},
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicAPIURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", e.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("OCR API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [OCR] Claude API error: %d - %s", resp.StatusCode, string(body))
		return Result{}, fmt.Errorf("OCR API error: %d", resp.StatusCode)
	}

	var apiResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	var parts []string
	for _, block := range apiResp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return Result{}, fmt.Errorf("no text content in OCR response")
	}

	log.Printf("✅ [OCR] Claude extracted %d chars", len(text))
	return Result{Text: text, Success: true}, nil
}
