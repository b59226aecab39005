package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"thynk/internal/models"
)

// Cache is the minimal key-value surface the context store needs.
// *RedisService satisfies it; tests substitute an in-memory fake.
type Cache interface {
	HSet(ctx context.Context, key, field, value string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, incr int64) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// ContextStore persists learning context entries in the remote cache,
// partitioned by user and content type, with recency indices and counters.
//
// Key layout per user U:
//
//	context:{U}          hash of entry-id -> serialized entry (general)
//	context:{U}:sorted   sorted set of entry-id scored by capture timestamp
//	lecture:{U}          hash of entry-id -> serialized entry (lecture)
//	lecture:{U}:sorted   sorted set of entry-id scored by capture timestamp
//	meta:{U}             hash of counters
//
// Every operation degrades to false/empty on cache failure. The remote
// cache is fallible-but-non-fatal: callers log and continue.
type ContextStore struct {
	cache Cache
}

// NewContextStore creates a context store backed by the given cache
func NewContextStore(cache Cache) *ContextStore {
	return &ContextStore{cache: cache}
}

func contextKey(userID string) string {
	return fmt.Sprintf("context:%s", userID)
}

func lectureKey(userID string) string {
	return fmt.Sprintf("lecture:%s", userID)
}

func metaKey(userID string) string {
	return fmt.Sprintf("meta:%s", userID)
}

// newEntryID mints a user-scoped entry id. The millisecond timestamp keeps
// ids roughly ordered; the uuid fragment removes the same-millisecond
// collision risk under concurrent writes.
func newEntryID(prefix string, ts time.Time) string {
	return fmt.Sprintf("%s_%d_%s", prefix, ts.UnixMilli(), uuid.New().String()[:8])
}

// StoreContext stores a general context entry for the user.
// Returns false (never an error) on any underlying storage failure.
func (s *ContextStore) StoreContext(ctx context.Context, text, userID string) bool {
	now := time.Now().UTC()
	entry := models.ContextEntry{
		Content:     text,
		Timestamp:   float64(now.UnixNano()) / 1e9,
		CreatedAt:   now,
		ContentType: models.ContentTypeGeneral,
	}

	return s.writeEntry(ctx, userID, contextKey(userID), newEntryID("ctx", now), entry, "total_entries", "last_updated")
}

// StoreLectureTranscription stores a lecture entry, carrying the
// transcription confidence into the persisted shape.
func (s *ContextStore) StoreLectureTranscription(ctx context.Context, text, userID string, confidence float64) bool {
	now := time.Now().UTC()
	entry := models.ContextEntry{
		Content:     text,
		Timestamp:   float64(now.UnixNano()) / 1e9,
		CreatedAt:   now,
		ContentType: models.ContentTypeLecture,
		Confidence:  confidence,
	}

	return s.writeEntry(ctx, userID, lectureKey(userID), newEntryID("lec", now), entry, "lecture_entries", "last_lecture_updated")
}

func (s *ContextStore) writeEntry(ctx context.Context, userID, key, entryID string, entry models.ContextEntry, counterField, updatedField string) bool {
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to serialize entry for user %s: %v", userID, err)
		return false
	}

	if err := s.cache.HSet(ctx, key, entryID, string(data)); err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to store entry for user %s: %v", userID, err)
		return false
	}

	if err := s.cache.ZAdd(ctx, key+":sorted", entry.Timestamp, entryID); err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to index entry for user %s: %v", userID, err)
		return false
	}

	meta := metaKey(userID)
	if err := s.cache.HIncrBy(ctx, meta, counterField, 1); err != nil {
		log.Printf("⚠️ [CONTEXT-STORE] Failed to bump %s for user %s: %v", counterField, userID, err)
	}
	if err := s.cache.HSet(ctx, meta, updatedField, strconv.FormatFloat(entry.Timestamp, 'f', -1, 64)); err != nil {
		log.Printf("⚠️ [CONTEXT-STORE] Failed to update %s for user %s: %v", updatedField, userID, err)
	}

	return true
}

// GetRecentEntries returns up to limit entries for the user and content
// type, most recent first. Returns an empty slice on any failure.
func (s *ContextStore) GetRecentEntries(ctx context.Context, userID string, contentType models.ContentType, limit int) []models.ContextEntry {
	if limit <= 0 {
		return nil
	}

	key := contextKey(userID)
	if contentType == models.ContentTypeLecture {
		key = lectureKey(userID)
	}

	ids, err := s.cache.ZRevRange(ctx, key+":sorted", 0, int64(limit-1))
	if err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to read recency index for user %s: %v", userID, err)
		return nil
	}

	entries := make([]models.ContextEntry, 0, len(ids))
	for _, id := range ids {
		raw, err := s.cache.HGet(ctx, key, id)
		if err != nil {
			log.Printf("⚠️ [CONTEXT-STORE] Missing entry %s for user %s: %v", id, userID, err)
			continue
		}

		var entry models.ContextEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Printf("⚠️ [CONTEXT-STORE] Corrupt entry %s for user %s: %v", id, userID, err)
			continue
		}
		entry.ID = id
		entries = append(entries, entry)
	}

	return entries
}

// GetUserSummary reads the per-user aggregate counters.
func (s *ContextStore) GetUserSummary(ctx context.Context, userID string) models.UserSummary {
	summary := models.UserSummary{UserID: userID}

	meta, err := s.cache.HGetAll(ctx, metaKey(userID))
	if err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to read metadata for user %s: %v", userID, err)
		return summary
	}

	summary.TotalEntries, _ = strconv.ParseInt(meta["total_entries"], 10, 64)
	summary.LectureEntries, _ = strconv.ParseInt(meta["lecture_entries"], 10, 64)
	summary.LastUpdated = parseTimestampField(meta["last_updated"])
	summary.LastLectureTime = parseTimestampField(meta["last_lecture_updated"])

	return summary
}

func parseTimestampField(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil || ts <= 0 {
		return nil
	}
	t := time.Unix(0, int64(ts*1e9)).UTC()
	return &t
}

// ClearUser deletes all general entries and indices for the user.
// Lecture entries are removed only when alsoClearLectures is set.
func (s *ContextStore) ClearUser(ctx context.Context, userID string, alsoClearLectures bool) bool {
	keys := []string{contextKey(userID), contextKey(userID) + ":sorted", metaKey(userID)}
	if alsoClearLectures {
		keys = append(keys, lectureKey(userID), lectureKey(userID)+":sorted")
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("❌ [CONTEXT-STORE] Failed to clear context for user %s: %v", userID, err)
		return false
	}

	log.Printf("🧹 [CONTEXT-STORE] Cleared context for user %s (lectures=%v)", userID, alsoClearLectures)
	return true
}
