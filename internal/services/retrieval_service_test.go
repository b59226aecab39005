package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"thynk/internal/models"
)

// fakeReader serves canned recency-ordered entries per content type.
type fakeReader struct {
	general  []models.ContextEntry
	lectures []models.ContextEntry
}

func (f *fakeReader) GetRecentEntries(_ context.Context, _ string, contentType models.ContentType, limit int) []models.ContextEntry {
	source := f.general
	if contentType == models.ContentTypeLecture {
		source = f.lectures
	}
	if limit < len(source) {
		return source[:limit]
	}
	return source
}

func (f *fakeReader) GetUserSummary(_ context.Context, userID string) models.UserSummary {
	return models.UserSummary{UserID: userID, TotalEntries: int64(len(f.general))}
}

func makeEntries(contentType models.ContentType, count int) []models.ContextEntry {
	now := time.Now().UTC()
	entries := make([]models.ContextEntry, count)
	for i := 0; i < count; i++ {
		// Position 0 is most recent
		created := now.Add(-time.Duration(i) * time.Minute)
		entries[i] = models.ContextEntry{
			Content:     fmt.Sprintf("%s entry %d", contentType, i),
			Timestamp:   float64(created.UnixNano()) / 1e9,
			CreatedAt:   created,
			ContentType: contentType,
		}
	}
	return entries
}

func TestDecayMonotonicity(t *testing.T) {
	reader := &fakeReader{general: makeEntries(models.ContentTypeGeneral, 20)}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:  20,
		DecayFactor: 0.1,
	})
	if len(weighted) != 20 {
		t.Fatalf("expected 20 entries, got %d", len(weighted))
	}

	for i := 1; i < len(weighted); i++ {
		if weighted[i].Weight >= weighted[i-1].Weight {
			t.Errorf("weight at position %d (%v) should be strictly below position %d (%v)",
				i, weighted[i].Weight, i-1, weighted[i-1].Weight)
		}
	}
}

func TestRankBasedWeights(t *testing.T) {
	reader := &fakeReader{general: makeEntries(models.ContentTypeGeneral, 5)}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:  5,
		DecayFactor: 0.1,
	})

	for i, entry := range weighted {
		want := math.Exp(-0.1 * float64(i))
		if math.Abs(entry.Weight-want) > 1e-12 {
			t.Errorf("position %d: weight %v, want %v", i, entry.Weight, want)
		}
		if entry.Position != i {
			t.Errorf("position %d: recorded position %d", i, entry.Position)
		}
	}

	// Position 0 carries exactly exp(0) = 1.0
	if weighted[0].Weight != 1.0 {
		t.Errorf("most recent entry should have weight 1.0, got %v", weighted[0].Weight)
	}
}

func TestLectureDownWeighting(t *testing.T) {
	reader := &fakeReader{
		general:  makeEntries(models.ContentTypeGeneral, 10),
		lectures: makeEntries(models.ContentTypeLecture, 10),
	}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:        40,
		IncludeLectures:   true,
		LectureBaseWeight: 0.3,
		DecayFactor:       0.1,
	})

	generalWeights := make(map[int]float64)
	lectureWeights := make(map[int]float64)
	for _, entry := range weighted {
		switch entry.Source {
		case models.SourceContext:
			generalWeights[entry.Position] = entry.Weight
		case models.SourceLecture:
			lectureWeights[entry.Position] = entry.Weight
		}
	}

	for pos, lw := range lectureWeights {
		gw, ok := generalWeights[pos]
		if !ok {
			continue
		}
		if math.Abs(lw-gw*0.3) > 1e-12 {
			t.Errorf("position %d: lecture weight %v, want general %v * 0.3", pos, lw, gw)
		}
	}

	// A lecture at position 0 never outranks a general capture at position 0
	if weighted[0].Source != models.SourceContext {
		t.Errorf("top entry should come from general context, got %s", weighted[0].Source)
	}
}

func TestBudgetSplit(t *testing.T) {
	reader := &fakeReader{
		general:  makeEntries(models.ContentTypeGeneral, 100),
		lectures: makeEntries(models.ContentTypeLecture, 100),
	}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:        50,
		IncludeLectures:   true,
		LectureBaseWeight: 0.3,
		DecayFactor:       0.1,
	})
	if len(weighted) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(weighted))
	}

	generalCount, lectureCount := 0, 0
	for _, entry := range weighted {
		if entry.Source == models.SourceContext {
			generalCount++
		} else {
			lectureCount++
		}
	}

	if generalCount != 35 {
		t.Errorf("expected floor(50*0.7) = 35 general entries, got %d", generalCount)
	}
	if lectureCount != 15 {
		t.Errorf("expected 15 lecture entries, got %d", lectureCount)
	}
}

func TestLecturesFillUnusedGeneralBudget(t *testing.T) {
	reader := &fakeReader{
		general:  makeEntries(models.ContentTypeGeneral, 5),
		lectures: makeEntries(models.ContentTypeLecture, 100),
	}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:        50,
		IncludeLectures:   true,
		LectureBaseWeight: 0.3,
		DecayFactor:       0.1,
	})

	lectureCount := 0
	for _, entry := range weighted {
		if entry.Source == models.SourceLecture {
			lectureCount++
		}
	}
	if lectureCount != 45 {
		t.Errorf("lectures should fill the unused general budget (45), got %d", lectureCount)
	}
}

func TestLecturesExcluded(t *testing.T) {
	reader := &fakeReader{
		general:  makeEntries(models.ContentTypeGeneral, 100),
		lectures: makeEntries(models.ContentTypeLecture, 100),
	}
	retriever := NewRetrievalService(reader)

	weighted := retriever.GetWeightedContext(context.Background(), "alice", RetrievalOptions{
		MaxEntries:      50,
		IncludeLectures: false,
		DecayFactor:     0.1,
	})
	if len(weighted) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(weighted))
	}
	for _, entry := range weighted {
		if entry.Source != models.SourceContext {
			t.Fatalf("lectures excluded but got source %s", entry.Source)
		}
	}
}

func TestWeightedContextEmptyStore(t *testing.T) {
	retriever := NewRetrievalService(&fakeReader{})

	weighted := retriever.GetWeightedContext(context.Background(), "nobody", DefaultRetrievalOptions())
	if len(weighted) != 0 {
		t.Errorf("expected empty bundle, got %d entries", len(weighted))
	}
}

func TestGeneralOutranksLectureEndToEnd(t *testing.T) {
	// One general entry and one lecture entry stored through the real
	// store: general wins with weights 1.0 vs 0.3.
	cache := newFakeCache()
	store := NewContextStore(cache)
	retriever := NewRetrievalService(store)
	ctx := context.Background()

	store.StoreContext(ctx, "Linear equation 2x+5=13 being solved", "alice")
	store.StoreLectureTranscription(ctx, "Lecture about linear equations", "alice", 0.9)

	weighted := retriever.GetWeightedContext(ctx, "alice", RetrievalOptions{
		MaxEntries:        10,
		IncludeLectures:   true,
		LectureBaseWeight: 0.3,
		DecayFactor:       0.1,
	})
	if len(weighted) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(weighted))
	}

	if weighted[0].Source != models.SourceContext || weighted[0].Weight != 1.0 {
		t.Errorf("first entry should be general with weight 1.0, got %s w=%v", weighted[0].Source, weighted[0].Weight)
	}
	if weighted[1].Source != models.SourceLecture || math.Abs(weighted[1].Weight-0.3) > 1e-12 {
		t.Errorf("second entry should be lecture with weight 0.3, got %s w=%v", weighted[1].Source, weighted[1].Weight)
	}
}

func TestContextPreview(t *testing.T) {
	retriever := NewRetrievalService(&fakeReader{})
	entries, preview := retriever.GetContextPreview(context.Background(), "nobody", 10)
	if entries != 0 {
		t.Errorf("expected 0 entries, got %d", entries)
	}
	if preview != "No previous learning context available." {
		t.Errorf("unexpected empty preview: %q", preview)
	}

	now := time.Now().UTC()
	reader := &fakeReader{general: []models.ContextEntry{
		{Content: "fresh", CreatedAt: now.Add(-10 * time.Minute)},
		{Content: "stale", CreatedAt: now.Add(-3 * time.Hour)},
	}}
	retriever = NewRetrievalService(reader)

	entries, preview = retriever.GetContextPreview(context.Background(), "alice", 10)
	if entries != 2 {
		t.Errorf("expected 2 entries, got %d", entries)
	}
	if !strings.Contains(preview, "[recent] fresh") {
		t.Errorf("preview should label fresh entries recent: %q", preview)
	}
	if !strings.Contains(preview, "[earlier] stale") {
		t.Errorf("preview should label old entries earlier: %q", preview)
	}
	if !strings.Contains(preview, " | ") {
		t.Errorf("preview should join entries with a separator: %q", preview)
	}
}
