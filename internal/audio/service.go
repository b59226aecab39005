package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	groqTranscriptionURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	openaiTranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

	// defaultConfidence is reported when the API returns no segment data
	defaultConfidence = 0.8
)

// Service handles audio transcription using Whisper API (Groq or OpenAI)
type Service struct {
	httpClient   *http.Client
	groqAPIKey   string
	openaiAPIKey string
}

// NewService creates the transcription service. Either key may be empty;
// Transcribe fails when neither provider is configured.
func NewService(groqAPIKey, openaiAPIKey string) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // Whisper can take a while for long audio
		},
		groqAPIKey:   groqAPIKey,
		openaiAPIKey: openaiAPIKey,
	}
}

// Available reports whether at least one transcription provider is configured
func (s *Service) Available() bool {
	return s.groqAPIKey != "" || s.openaiAPIKey != ""
}

// TranscribeResponse contains the result of transcription
type TranscribeResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider,omitempty"`
}

// Transcribe transcribes raw audio bytes to text using Whisper API.
// Tries Groq first (cheaper), falls back to OpenAI.
func (s *Service) Transcribe(ctx context.Context, audio []byte, filename string) (*TranscribeResponse, error) {
	log.Printf("🎵 [AUDIO] Transcribing audio segment (%d bytes)", len(audio))

	if s.groqAPIKey != "" {
		resp, err := s.transcribeWithProvider(ctx, audio, filename, groqTranscriptionURL, "whisper-large-v3", "Groq", s.groqAPIKey)
		if err == nil {
			return resp, nil
		}
		log.Printf("[AUDIO] Groq transcription failed, trying OpenAI: %v", err)
	}

	if s.openaiAPIKey != "" {
		return s.transcribeWithProvider(ctx, audio, filename, openaiTranscriptionURL, "whisper-1", "OpenAI", s.openaiAPIKey)
	}

	return nil, fmt.Errorf("no audio provider configured")
}

// transcribeWithProvider is the common transcription logic for any
// Whisper-compatible API
func (s *Service) transcribeWithProvider(ctx context.Context, audio []byte, filename, apiURL, model, providerName, apiKey string) (*TranscribeResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	log.Printf("🔄 [AUDIO] Sending audio to %s Whisper API (model: %s)", providerName, model)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [AUDIO] %s Whisper API error: %d - %s", providerName, resp.StatusCode, string(respBody))

		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error.Message != "" {
			return nil, fmt.Errorf("%s Whisper API error: %s", providerName, errorResp.Error.Message)
		}

		return nil, fmt.Errorf("%s Whisper API error: %d", providerName, resp.StatusCode)
	}

	var apiResp struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
		Segments []struct {
			AvgLogprob float64 `json:"avg_logprob"`
		} `json:"segments"`
	}

	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	confidence := segmentConfidence(len(apiResp.Segments), func(i int) float64 {
		return apiResp.Segments[i].AvgLogprob
	})

	log.Printf("✅ [AUDIO] %s transcription successful (%d chars, %.1fs duration, conf %.2f)",
		providerName, len(apiResp.Text), apiResp.Duration, confidence)

	return &TranscribeResponse{
		Text:       apiResp.Text,
		Language:   apiResp.Language,
		Duration:   apiResp.Duration,
		Confidence: confidence,
		Provider:   providerName,
	}, nil
}

// segmentConfidence converts Whisper's per-segment average log
// probabilities into a 0-1 confidence score. Whisper log probabilities sit
// roughly in [-3, 0]; the mapping (avg+3)/3 is an approximation, clamped.
func segmentConfidence(n int, logprob func(i int) float64) float64 {
	if n == 0 {
		return defaultConfidence
	}

	total := 0.0
	for i := 0; i < n; i++ {
		total += logprob(i)
	}
	avg := total / float64(n)

	confidence := (avg + 3.0) / 3.0
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// GetSupportedFormats returns the list of supported audio formats
func GetSupportedFormats() []string {
	return []string{
		"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm", "ogg", "flac",
	}
}

// IsSupportedFormat checks if a MIME type is supported for transcription
func IsSupportedFormat(mimeType string) bool {
	supportedTypes := map[string]bool{
		"audio/mpeg":  true,
		"audio/mp3":   true,
		"audio/mp4":   true,
		"audio/x-m4a": true,
		"audio/wav":   true,
		"audio/x-wav": true,
		"audio/wave":  true,
		"audio/webm":  true,
		"audio/ogg":   true,
		"audio/flac":  true,
	}
	return supportedTypes[mimeType]
}
