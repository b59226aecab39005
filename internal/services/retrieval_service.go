package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"thynk/internal/models"
)

// generalBudgetShare is the fraction of the retrieval budget reserved for
// interactively captured context when lectures are included. Lectures fill
// whatever the general fetch leaves unused.
const generalBudgetShare = 0.7

// ContextReader is the storage capability the retriever needs.
type ContextReader interface {
	GetRecentEntries(ctx context.Context, userID string, contentType models.ContentType, limit int) []models.ContextEntry
	GetUserSummary(ctx context.Context, userID string) models.UserSummary
}

// RetrievalOptions tunes a weighted context retrieval.
type RetrievalOptions struct {
	MaxEntries        int
	IncludeLectures   bool
	LectureBaseWeight float64
	DecayFactor       float64
}

// DefaultRetrievalOptions matches the hint synthesizer's fixed parameters.
func DefaultRetrievalOptions() RetrievalOptions {
	return RetrievalOptions{
		MaxEntries:        50,
		IncludeLectures:   true,
		LectureBaseWeight: 0.3,
		DecayFactor:       0.1,
	}
}

// RetrievalService produces a ranked, size-bounded context bundle blending
// interactive captures and lecture transcripts. It never mutates stored
// data; weights are annotated in memory only.
type RetrievalService struct {
	store ContextReader
}

// NewRetrievalService creates a retrieval service over the given store
func NewRetrievalService(store ContextReader) *RetrievalService {
	return &RetrievalService{store: store}
}

// GetWeightedContext returns up to opts.MaxEntries entries ordered by
// descending weight (capture time breaks ties).
//
// Decay is rank-based, not elapsed-time-based: the entry at recency
// position i gets exp(-decayFactor*i), so weight depends only on how many
// more-recent entries exist, not on wall-clock gaps between captures.
// Lecture entries are additionally scaled by LectureBaseWeight, so a
// lecture at a given rank never outranks a general capture at the same
// rank.
func (s *RetrievalService) GetWeightedContext(ctx context.Context, userID string, opts RetrievalOptions) []models.WeightedEntry {
	if opts.MaxEntries <= 0 {
		return nil
	}

	generalBudget := opts.MaxEntries
	if opts.IncludeLectures {
		generalBudget = int(float64(opts.MaxEntries) * generalBudgetShare)
	}

	general := s.store.GetRecentEntries(ctx, userID, models.ContentTypeGeneral, generalBudget)

	weighted := make([]models.WeightedEntry, 0, opts.MaxEntries)
	for i, entry := range general {
		weighted = append(weighted, models.WeightedEntry{
			ContextEntry: entry,
			Weight:       math.Exp(-opts.DecayFactor * float64(i)),
			Source:       models.SourceContext,
			Position:     i,
		})
	}

	if opts.IncludeLectures {
		lectureBudget := opts.MaxEntries - len(general)
		lectures := s.store.GetRecentEntries(ctx, userID, models.ContentTypeLecture, lectureBudget)
		for i, entry := range lectures {
			weighted = append(weighted, models.WeightedEntry{
				ContextEntry: entry,
				Weight:       math.Exp(-opts.DecayFactor*float64(i)) * opts.LectureBaseWeight,
				Source:       models.SourceLecture,
				Position:     i,
			})
		}
	}

	sort.SliceStable(weighted, func(i, j int) bool {
		if weighted[i].Weight != weighted[j].Weight {
			return weighted[i].Weight > weighted[j].Weight
		}
		return weighted[i].Timestamp > weighted[j].Timestamp
	})

	if len(weighted) > opts.MaxEntries {
		weighted = weighted[:opts.MaxEntries]
	}

	return weighted
}

// GetContextPreview returns the entry count and a human-readable joined
// preview of recent general context, labeled by rough age. This is the
// simple status path; ranking for hint prompts goes through
// GetWeightedContext.
func (s *RetrievalService) GetContextPreview(ctx context.Context, userID string, maxEntries int) (int, string) {
	entries := s.store.GetRecentEntries(ctx, userID, models.ContentTypeGeneral, maxEntries)
	if len(entries) == 0 {
		return 0, "No previous learning context available."
	}

	now := time.Now().UTC()
	parts := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}
		ageLabel := "earlier"
		if now.Sub(entry.CreatedAt) < time.Hour {
			ageLabel = "recent"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", ageLabel, entry.Content))
	}

	if len(parts) == 0 {
		return len(entries), "No relevant context available."
	}

	return len(entries), strings.Join(parts, " | ")
}
