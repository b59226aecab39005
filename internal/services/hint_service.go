package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"thynk/internal/metrics"
	"thynk/internal/models"
)

// Fixed user-facing fallbacks. The hint endpoint must always return
// something displayable, even in total collaborator failure.
const (
	hintFallbackProviderDown = "💡 **Hint:** I'm having trouble generating a hint right now. Try breaking down the problem into smaller steps and focus on what you know so far!"
	hintFallbackGeneric      = "💡 **Hint:** Keep going! Look at what you've written so far and think about the next logical step."
)

const hintPromptTemplate = `You are Thynk, an encouraging AI tutor that helps students learn math step-by-step. Your motto is "Always Ask Y" - meaning you help students discover answers through guided questions rather than giving direct solutions.

Based on the learning context below, provide a helpful hint for the next step. Your hint should:

1. **Be encouraging and supportive**
2. **Guide rather than solve** - ask leading questions or give gentle nudges
3. **Focus on the immediate next step**, not the entire solution
4. **Use clear, student-friendly language**
5. **Format your response in markdown** for web display

Learning Context:
%s

%s

Provide your hint in markdown format, keeping it concise but helpful (2-4 sentences max):`

// ContextRetriever is the retrieval capability the hint synthesizer needs.
type ContextRetriever interface {
	GetWeightedContext(ctx context.Context, userID string, opts RetrievalOptions) []models.WeightedEntry
}

// HintService turns a weighted context bundle plus the student's current
// situation into a short, pedagogically-styled hint.
type HintService struct {
	completions Completer
	retriever   ContextRetriever
}

// NewHintService creates a hint service
func NewHintService(completions Completer, retriever ContextRetriever) *HintService {
	return &HintService{completions: completions, retriever: retriever}
}

// GiveHint generates a markdown hint for the user's current session.
// It never fails: provider errors degrade to a fixed encouraging string.
func (s *HintService) GiveHint(ctx context.Context, userID, learnedText, question string) string {
	weighted := s.retriever.GetWeightedContext(ctx, userID, DefaultRetrievalOptions())

	fullContext := renderWeightedContext(weighted, learnedText)

	questionPart := ""
	if question != "" {
		questionPart = "User's specific question: " + question
	}

	prompt := fmt.Sprintf(hintPromptTemplate, fullContext, questionPart)

	hint, err := s.completions.Complete(ctx, prompt, 300, 0.7)
	if err != nil {
		log.Printf("❌ [HINT] Completion provider failed: %v", err)
		metrics.HintFallbacks.Inc()
		return hintFallbackProviderDown
	}

	hint = strings.TrimSpace(hint)
	if hint == "" {
		metrics.HintFallbacks.Inc()
		return hintFallbackGeneric
	}

	// Guarantee consistent rendering on the frontend
	if !strings.HasPrefix(hint, "#") && !strings.HasPrefix(hint, "*") {
		hint = "💡 **Hint:** " + hint
	}

	metrics.HintsGenerated.Inc()
	return hint
}

// renderWeightedContext flattens the weighted bundle into prompt lines,
// tagging each entry with a priority label derived from its weight.
func renderWeightedContext(weighted []models.WeightedEntry, learnedText string) string {
	parts := make([]string, 0, len(weighted))
	for _, entry := range weighted {
		parts = append(parts, fmt.Sprintf("%s (%s, w=%.2f): %s",
			priorityLabel(entry.Weight), entry.Source, entry.Weight, entry.Content))
	}

	stored := "No previous context available."
	if len(parts) > 0 {
		stored = strings.Join(parts, "\n\n")
	}

	summary := fmt.Sprintf("\n\n[CONTEXT SUMMARY: %d entries retrieved with exponential decay weighting]", len(weighted))

	if learnedText == "" {
		return stored + summary
	}
	return fmt.Sprintf("%s%s\n\n[CURRENT SESSION]: %s", stored, summary, learnedText)
}

func priorityLabel(weight float64) string {
	switch {
	case weight >= 0.8:
		return "[CRITICAL]"
	case weight >= 0.5:
		return "[HIGH PRIORITY]"
	case weight >= 0.2:
		return "[MEDIUM]"
	default:
		return "[BACKGROUND]"
	}
}
