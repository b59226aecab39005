package services

import (
	"log"
	"strings"

	"github.com/patrickmn/go-cache"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// NoveltyFilter suppresses redundant processing when newly captured text is
// materially the same as the previous capture for the same user.
//
// State is an in-memory last-seen-text map, process-lifetime only. A restart
// forgets prior dedup state; worst case is one redundant compression call.
type NoveltyFilter struct {
	lastSeen  *cache.Cache
	dmp       *diffmatchpatch.DiffMatchPatch
	threshold float64
}

// NewNoveltyFilter creates a novelty filter with the given default
// similarity threshold (0.3 matches the original tuning).
func NewNoveltyFilter(threshold float64) *NoveltyFilter {
	return &NoveltyFilter{
		lastSeen:  cache.New(cache.NoExpiration, cache.NoExpiration),
		dmp:       diffmatchpatch.New(),
		threshold: threshold,
	}
}

// IsDifferent reports whether currentText is novel for the user, using the
// filter's default threshold. Returns the text when novel, "" otherwise.
func (f *NoveltyFilter) IsDifferent(userID, currentText string) string {
	return f.IsDifferentWithThreshold(userID, currentText, f.threshold)
}

// IsDifferentWithThreshold is IsDifferent with an explicit threshold.
// Texts at similarity exactly 1-threshold are treated as not different.
func (f *NoveltyFilter) IsDifferentWithThreshold(userID, currentText string, threshold float64) string {
	if strings.TrimSpace(currentText) == "" {
		return ""
	}

	previous, seen := f.lastSeen.Get(userID)
	if !seen {
		// First text for this user, accept unconditionally
		f.lastSeen.Set(userID, currentText, cache.NoExpiration)
		return currentText
	}

	previousText, ok := previous.(string)
	if !ok {
		// Corrupt state, fail open: treat as different
		log.Printf("⚠️ [NOVELTY] Unexpected last-seen state for user %s, treating as novel", userID)
		f.lastSeen.Set(userID, currentText, cache.NoExpiration)
		return currentText
	}

	similarity := f.similarity(previousText, currentText)
	if similarity < 1.0-threshold {
		f.lastSeen.Set(userID, currentText, cache.NoExpiration)
		return currentText
	}

	return ""
}

// similarity computes a normalized ratio in [0,1] between two texts:
// 2*matched/(len(a)+len(b)), where matched counts characters in common
// runs of the diff. 1.0 means identical sequences.
func (f *NoveltyFilter) similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a)+len(b) == 0 {
		return 1.0
	}

	diffs := f.dmp.DiffMain(a, b, false)
	matched := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			matched += len(d.Text)
		}
	}

	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// Reset forgets the last-seen text for the user.
func (f *NoveltyFilter) Reset(userID string) {
	f.lastSeen.Delete(userID)
}
