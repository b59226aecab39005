package audio

import (
	"context"
	"math"
	"testing"
)

func TestSegmentConfidence(t *testing.T) {
	tests := []struct {
		name     string
		logprobs []float64
		want     float64
	}{
		{"no segments uses default", nil, 0.8},
		{"perfect logprob", []float64{0}, 1.0},
		{"floor logprob", []float64{-3}, 0.0},
		{"midpoint", []float64{-1.5}, 0.5},
		{"averaged across segments", []float64{0, -3}, 0.5},
		{"clamped below zero", []float64{-10}, 0.0},
		{"clamped above one", []float64{2}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentConfidence(len(tt.logprobs), func(i int) float64 {
				return tt.logprobs[i]
			})
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("segmentConfidence(%v) = %v, want %v", tt.logprobs, got, tt.want)
			}
		})
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"audio/mpeg", true},
		{"audio/wav", true},
		{"audio/x-m4a", true},
		{"audio/webm", true},
		{"video/mp4", false},
		{"image/png", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.mimeType); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestGetSupportedFormats(t *testing.T) {
	formats := GetSupportedFormats()
	if len(formats) == 0 {
		t.Fatal("expected non-empty format list")
	}
	seen := map[string]bool{}
	for _, f := range formats {
		seen[f] = true
	}
	for _, want := range []string{"mp3", "wav", "webm"} {
		if !seen[want] {
			t.Errorf("format list missing %q: %v", want, formats)
		}
	}
}

func TestAvailability(t *testing.T) {
	if NewService("", "").Available() {
		t.Error("service with no keys should be unavailable")
	}
	if !NewService("groq-key", "").Available() {
		t.Error("groq key alone should make the service available")
	}
	if !NewService("", "openai-key").Available() {
		t.Error("openai key alone should make the service available")
	}
}

func TestTranscribeNoProviderConfigured(t *testing.T) {
	svc := NewService("", "")
	if _, err := svc.Transcribe(context.Background(), []byte("audio"), "segment.wav"); err == nil {
		t.Fatal("expected an error with no provider configured")
	}
}
