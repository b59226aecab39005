package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// stubCompleter returns a canned response or error and records prompts.
type stubCompleter struct {
	response string
	err      error
	prompts  []string
}

func (s *stubCompleter) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

// recordingWriter records stored entries and can simulate storage failure.
type recordingWriter struct {
	general  []string
	lectures []string
	fail     bool
}

func (w *recordingWriter) StoreContext(_ context.Context, text, _ string) bool {
	if w.fail {
		return false
	}
	w.general = append(w.general, text)
	return true
}

func (w *recordingWriter) StoreLectureTranscription(_ context.Context, text, _ string, _ float64) bool {
	if w.fail {
		return false
	}
	w.lectures = append(w.lectures, text)
	return true
}

func TestCompressStoresSummary(t *testing.T) {
	completer := &stubCompleter{response: "Student is solving 2x+5=13 using inverse operations."}
	writer := &recordingWriter{}
	svc := NewCompressionService(completer, writer)

	svc.Compress(context.Background(), "messy OCR text about 2x+5=13 homework", "alice")

	if len(writer.general) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(writer.general))
	}
	if writer.general[0] != "Student is solving 2x+5=13 using inverse operations." {
		t.Errorf("stored wrong content: %q", writer.general[0])
	}
	if len(completer.prompts) != 1 || !strings.Contains(completer.prompts[0], "messy OCR text about 2x+5=13 homework") {
		t.Error("raw text should be embedded in the compression prompt")
	}
}

func TestCompressEmptyInputIsNoOp(t *testing.T) {
	completer := &stubCompleter{response: "should never be called"}
	writer := &recordingWriter{}
	svc := NewCompressionService(completer, writer)

	svc.Compress(context.Background(), "   \n\t ", "alice")

	if len(completer.prompts) != 0 {
		t.Error("empty input should not hit the completion provider")
	}
	if len(writer.general) != 0 {
		t.Error("empty input should not be stored")
	}
}

func TestCompressDiscardsIrrelevant(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"sentinel", "No relevant educational content found"},
		{"sentinel lowercase", "no relevant educational content found."},
		{"blank response", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &recordingWriter{}
			svc := NewCompressionService(&stubCompleter{response: tt.response}, writer)

			svc.Compress(context.Background(), "a poster on the wall", "alice")

			if len(writer.general) != 0 {
				t.Errorf("irrelevant content should be discarded, stored %q", writer.general)
			}
		})
	}
}

func TestCompressFallsBackOnProviderError(t *testing.T) {
	longRaw := strings.Repeat("x", 500)
	writer := &recordingWriter{}
	svc := NewCompressionService(&stubCompleter{err: errors.New("provider down")}, writer)

	svc.Compress(context.Background(), longRaw, "alice")

	if len(writer.general) != 1 {
		t.Fatalf("provider failure should store a raw fallback, got %d entries", len(writer.general))
	}
	if got := len([]rune(writer.general[0])); got != 200 {
		t.Errorf("fallback should be truncated to 200 runes, got %d", got)
	}
}

func TestCompressLectureReturnsStats(t *testing.T) {
	completer := &stubCompleter{response: "Lecturer derived the quadratic formula."}
	writer := &recordingWriter{}
	svc := NewCompressionService(completer, writer)

	raw := "um so today we uh derive the quadratic formula from completing the square"
	stats := svc.CompressLecture(context.Background(), raw, "alice", "sess-1", 0.85)

	if !stats.Success {
		t.Fatal("expected success")
	}
	if stats.OriginalLength != len(raw) {
		t.Errorf("original length %d, want %d", stats.OriginalLength, len(raw))
	}
	if stats.CompressedContent != "Lecturer derived the quadratic formula." {
		t.Errorf("unexpected compressed content: %q", stats.CompressedContent)
	}
	if stats.CompressedLength != len(stats.CompressedContent) {
		t.Errorf("compressed length %d does not match content", stats.CompressedLength)
	}
	if len(writer.lectures) != 1 {
		t.Fatalf("expected 1 stored lecture entry, got %d", len(writer.lectures))
	}
}

func TestCompressLectureFallbackStillStores(t *testing.T) {
	writer := &recordingWriter{}
	svc := NewCompressionService(&stubCompleter{err: errors.New("timeout")}, writer)

	stats := svc.CompressLecture(context.Background(), "raw lecture audio text", "alice", "sess-1", 0.6)

	if !stats.Success {
		t.Fatal("fallback storage should still count as success")
	}
	if stats.CompressedContent != "raw lecture audio text" {
		t.Errorf("fallback should store the raw text, got %q", stats.CompressedContent)
	}
	if len(writer.lectures) != 1 {
		t.Fatalf("expected 1 stored lecture entry, got %d", len(writer.lectures))
	}
}

func TestCompressLectureDiscardsIrrelevant(t *testing.T) {
	writer := &recordingWriter{}
	svc := NewCompressionService(&stubCompleter{response: "No relevant educational content found"}, writer)

	stats := svc.CompressLecture(context.Background(), "announcements about parking", "alice", "sess-1", 0.9)

	if stats.Success {
		t.Error("discarded segment should not report success")
	}
	if len(writer.lectures) != 0 {
		t.Error("discarded segment should not be stored")
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"", 5, ""},
	}
	for _, tt := range tests {
		if got := truncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
