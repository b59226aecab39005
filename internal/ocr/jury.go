package ocr

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// maxJuryCandidates bounds how many member outputs feed the aggregation.
const maxJuryCandidates = 4

// Aggregator reconciles candidate OCR outputs into one answer. The
// completion service satisfies it.
type Aggregator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

const juryAggregationPrompt = `You are a world-class OCR aggregation system. You will be given up to four OCR outputs that attempt to read the same scene. Your job is to produce a single, clean, faithful, and concise final text that best represents the underlying content. Remove duplicates, resolve minor conflicts, and prefer the clearly correct words. If any mathematical expressions or equations appear, ensure they are formatted using MathJAX: use $...$ for inline math and $$...$$ for display equations (e.g., \frac{a}{b}, \sqrt{x}, x^{2}, a_{i}). Do not add commentary. Return ONLY the final text.

Aggregate the following OCR candidate outputs into a single best representation. When writing any equations, use MathJAX formatting as described.

Candidates:
%s

Return only the final consolidated text.`

// JuryExtractor is a composite backend: it fans out to member extractors,
// collects their candidate readings, and asks the completion provider to
// reconcile them. A member failure drops that candidate; aggregation
// failure falls back to the longest candidate.
type JuryExtractor struct {
	members    []TextExtractor
	aggregator Aggregator
}

// NewJuryExtractor creates a jury over the given member backends
func NewJuryExtractor(aggregator Aggregator, members ...TextExtractor) *JuryExtractor {
	return &JuryExtractor{members: members, aggregator: aggregator}
}

// Available reports whether at least one member backend is usable
func (e *JuryExtractor) Available() bool {
	for _, m := range e.members {
		if m.Available() {
			return true
		}
	}
	return false
}

// Name identifies the backend
func (e *JuryExtractor) Name() string {
	return "jury"
}

// ExtractText runs all available members and reconciles their outputs
func (e *JuryExtractor) ExtractText(ctx context.Context, imageBase64 string) (Result, error) {
	var candidates []string

	for _, member := range e.members {
		if len(candidates) >= maxJuryCandidates {
			break
		}
		if !member.Available() {
			continue
		}

		res, err := member.ExtractText(ctx, imageBase64)
		if err != nil {
			log.Printf("⚠️ [OCR-JURY] Member %s failed: %v", member.Name(), err)
			continue
		}

		candidate := strings.TrimSpace(res.Text)
		if candidate != "" {
			log.Printf("[OCR-JURY] Candidate from %s: %s", member.Name(), truncate(candidate, 120))
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("no OCR outputs available from ensemble")
	}

	aggregated := e.aggregate(ctx, candidates)
	log.Printf("✅ [OCR-JURY] Aggregated %d candidates (%d chars)", len(candidates), len(aggregated))

	return Result{Text: aggregated, Success: true}, nil
}

func (e *JuryExtractor) aggregate(ctx context.Context, candidates []string) string {
	if len(candidates) == 1 {
		return candidates[0]
	}

	if e.aggregator != nil {
		numbered := make([]string, len(candidates))
		for i, c := range candidates {
			numbered[i] = fmt.Sprintf("%d. %s", i+1, c)
		}

		prompt := fmt.Sprintf(juryAggregationPrompt, strings.Join(numbered, "\n"))
		aggregated, err := e.aggregator.Complete(ctx, prompt, 512, 0.0)
		if err == nil && strings.TrimSpace(aggregated) != "" {
			return strings.TrimSpace(aggregated)
		}
		if err != nil {
			log.Printf("⚠️ [OCR-JURY] Aggregation failed, falling back to longest candidate: %v", err)
		}
	}

	// Heuristic fallback: the longest candidate usually read the most
	longest := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) > len(longest) {
			longest = c
		}
	}
	return longest
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
