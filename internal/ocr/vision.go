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

const visionOCRPrompt = `Extract all text visible in this image, including mathematical expressions and handwritten work. Return ONLY the extracted text with no commentary.`

// VisionExtractor reads text from images through any OpenAI-compatible
// chat/completions endpoint that accepts image_url content.
type VisionExtractor struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewVisionExtractor creates an OpenAI-compatible vision OCR extractor
func NewVisionExtractor(baseURL, apiKey, model string) *VisionExtractor {
	return &VisionExtractor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether the backend is configured
func (e *VisionExtractor) Available() bool {
	return e.apiKey != "" && e.baseURL != ""
}

// Name identifies the backend
func (e *VisionExtractor) Name() string {
	return "vision"
}

// ExtractText extracts text from a base64 encoded image
func (e *VisionExtractor) ExtractText(ctx context.Context, imageBase64 string) (Result, error) {
	if !e.Available() {
		return Result{}, fmt.Errorf("vision OCR not available: VISION_API_KEY not set")
	}

	mediaType, err := detectMediaType(imageBase64)
	if err != nil {
		return Result{}, err
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mediaType, imageBase64)

	requestBody := map[string]any{
		"model": e.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "text",
						"text": visionOCRPrompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]any{
							"url":    dataURL,
							"detail": "auto",
						},
					},
				},
			},
		},
		"max_tokens": 1024,
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := e.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)

	log.Printf("[OCR] Calling vision endpoint with model %s", e.model)

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
		log.Printf("❌ [OCR] Vision API error: %d - %s", resp.StatusCode, string(body))
		return Result{}, fmt.Errorf("OCR API error: %d", resp.StatusCode)
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Result{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(apiResp.Choices) == 0 {
		return Result{}, fmt.Errorf("no response from vision model")
	}

	text := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if text == "" {
		return Result{}, fmt.Errorf("vision model returned empty text")
	}

	log.Printf("✅ [OCR] Vision extracted %d chars via %s", len(text), e.model)
	return Result{Text: text, Success: true}, nil
}
