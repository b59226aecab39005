package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"thynk/internal/metrics"
	"thynk/internal/models"
)

// irrelevantSentinel is the literal the compression prompt instructs the
// model to answer with when nothing tutoring-relevant is found. Matched as
// a case-insensitive prefix.
const irrelevantSentinel = "no relevant"

// rawFallbackLimit bounds the raw-text prefix stored when the completion
// provider fails, so some signal survives instead of dropping the capture.
const rawFallbackLimit = 200

const compressionPromptTemplate = `You are an AI tutor assistant analyzing student work and learning materials.

Your task is to extract and summarize only the most important and educationally relevant information from the following content. This content comes from images of student work, textbooks, or study materials.

Focus on:
- Mathematical problems, equations, and solution steps
- Key concepts, theorems, or formulas being studied
- Student's work progress and problem-solving approaches
- Educational content that would be useful for providing hints or guidance

Ignore:
- Irrelevant background objects or text
- Non-educational content
- Unclear or garbled text from OCR errors
- Personal information or distracting elements

Content to analyze:
%s

Provide a concise summary (2-3 sentences max) of the most educationally relevant information, or respond with "No relevant educational content found" if there's nothing useful for tutoring purposes.`

const lecturePromptTemplate = `You are an AI tutor assistant analyzing a segment of a recorded lecture transcript.

Your task is to extract and summarize only the most important and educationally relevant information from the transcript below. Transcripts are noisy: expect filler words, repeated phrases, and transcription mistakes.

Focus on:
- Concepts, definitions, theorems, and formulas the lecturer explains
- Worked examples and solution methods
- Anything a student would need when solving related problems later

Ignore:
- Administrative announcements and small talk
- Filler words and transcription artifacts

Transcript segment:
%s

Provide a concise summary (2-3 sentences max) of the most educationally relevant information, or respond with "No relevant educational content found" if there's nothing useful for tutoring purposes.`

// ContextWriter is the storage capability the compressor needs.
type ContextWriter interface {
	StoreContext(ctx context.Context, text, userID string) bool
	StoreLectureTranscription(ctx context.Context, text, userID string, confidence float64) bool
}

// CompressionService turns raw noisy text (OCR output or a lecture
// transcript segment) into a short tutoring-relevant entry, or discards it.
type CompressionService struct {
	completions Completer
	store       ContextWriter
	log         *logrus.Logger
}

// NewCompressionService creates a compression service
func NewCompressionService(completions Completer, store ContextWriter) *CompressionService {
	return &CompressionService{
		completions: completions,
		store:       store,
		log:         logrus.New(),
	}
}

// Compress distills rawText and stores the result as a general context
// entry. Failures never propagate: on provider failure a truncated prefix
// of the raw text is stored instead.
func (s *CompressionService) Compress(ctx context.Context, rawText, userID string) {
	if strings.TrimSpace(rawText) == "" {
		return
	}

	prompt := fmt.Sprintf(compressionPromptTemplate, rawText)

	compressed, err := s.completions.Complete(ctx, prompt, 150, 0.3)
	if err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID}).
			Warnf("Compression call failed, storing raw fallback: %v", err)
		metrics.CompressionFallbacks.Inc()
		s.store.StoreContext(ctx, truncateRunes(rawText, rawFallbackLimit), userID)
		return
	}

	compressed = strings.TrimSpace(compressed)
	if compressed == "" || strings.HasPrefix(strings.ToLower(compressed), irrelevantSentinel) {
		s.log.WithFields(logrus.Fields{"user_id": userID}).
			Info("No relevant educational content found, discarding capture")
		metrics.CompressionsDiscarded.Inc()
		return
	}

	if s.store.StoreContext(ctx, compressed, userID) {
		metrics.CompressionsStored.Inc()
		s.log.WithFields(logrus.Fields{"user_id": userID}).
			Infof("Stored compressed context: %s", truncateRunes(compressed, 100))
	} else {
		s.log.WithFields(logrus.Fields{"user_id": userID}).
			Warn("Failed to store compressed context")
	}
}

// CompressLecture is the lecture-mode variant. Unlike Compress it returns
// the compression outcome, because lecture callers need the compressed text
// immediately for display, not just for storage.
func (s *CompressionService) CompressLecture(ctx context.Context, rawText, userID, sessionID string, confidence float64) models.CompressionStats {
	stats := models.CompressionStats{OriginalLength: len(rawText)}

	if strings.TrimSpace(rawText) == "" {
		return stats
	}

	logger := s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": sessionID})

	prompt := fmt.Sprintf(lecturePromptTemplate, rawText)

	compressed, err := s.completions.Complete(ctx, prompt, 150, 0.3)
	if err != nil {
		logger.Warnf("Lecture compression call failed, storing raw fallback: %v", err)
		metrics.CompressionFallbacks.Inc()
		fallback := truncateRunes(rawText, rawFallbackLimit)
		if s.store.StoreLectureTranscription(ctx, fallback, userID, confidence) {
			stats.Success = true
			stats.CompressedContent = fallback
			stats.CompressedLength = len(fallback)
		}
		return stats
	}

	compressed = strings.TrimSpace(compressed)
	if compressed == "" || strings.HasPrefix(strings.ToLower(compressed), irrelevantSentinel) {
		logger.Info("No relevant lecture content found, discarding segment")
		metrics.CompressionsDiscarded.Inc()
		return stats
	}

	if s.store.StoreLectureTranscription(ctx, compressed, userID, confidence) {
		metrics.CompressionsStored.Inc()
		stats.Success = true
		stats.CompressedContent = compressed
		stats.CompressedLength = len(compressed)
		logger.Infof("Stored lecture context: %s", truncateRunes(compressed, 100))
	} else {
		logger.Warn("Failed to store lecture context")
	}

	return stats
}

// truncateRunes bounds s to max runes without splitting a character.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
