package models

import "time"

// ContentType tags where a stored context entry came from.
type ContentType string

const (
	ContentTypeGeneral ContentType = "general"
	ContentTypeLecture ContentType = "lecture"
)

// Source identifies which population a weighted entry was retrieved from.
type Source string

const (
	SourceContext Source = "context"
	SourceLecture Source = "lecture"
)

// ContextEntry is a single stored learning observation.
// Entries are immutable once written; there is no update path.
type ContextEntry struct {
	ID          string      `json:"id,omitempty"`
	Content     string      `json:"content"`
	Timestamp   float64     `json:"timestamp"` // unix seconds, also the sorted-set score
	CreatedAt   time.Time   `json:"created_at"`
	ContentType ContentType `json:"content_type"`
	Confidence  float64     `json:"confidence,omitempty"` // lecture entries only
}

// WeightedEntry annotates a ContextEntry with its retrieval-time weight.
// Weights are computed at read time and never persisted.
type WeightedEntry struct {
	ContextEntry
	Weight   float64 `json:"weight"`
	Source   Source  `json:"source"`
	Position int     `json:"position"` // rank within its own source's recency ordering
}

// UserSummary reports the per-user aggregate counters.
type UserSummary struct {
	UserID          string     `json:"user_id"`
	TotalEntries    int64      `json:"total_entries"`
	LectureEntries  int64      `json:"lecture_entries"`
	LastUpdated     *time.Time `json:"last_updated,omitempty"`
	LastLectureTime *time.Time `json:"last_lecture_updated,omitempty"`
}

// CompressionStats is returned by the lecture compression path so callers
// can display the compressed text immediately.
type CompressionStats struct {
	OriginalLength    int    `json:"original_length"`
	CompressedLength  int    `json:"compressed_length"`
	Success           bool   `json:"success"`
	CompressedContent string `json:"compressed_content"`
}
