package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCheckWorkParsesVerdict(t *testing.T) {
	response := `{"is_correct": false, "first_error_step": 2, "error_description": "Sign flipped", "correction_guidance": "Subtract, don't add", "overall_feedback": "Close!"}`
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.CheckWork(context.Background(), []map[string]any{
		{"step": 1, "work": "2x+5=13"},
		{"step": 2, "work": "2x=18"},
	}, map[string]any{"topic": "linear equations"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.IsCorrect {
		t.Error("expected incorrect verdict")
	}
	if result.FirstErrorStep == nil || *result.FirstErrorStep != 2 {
		t.Errorf("expected first error step 2, got %v", result.FirstErrorStep)
	}
	if result.ErrorDescription != "Sign flipped" {
		t.Errorf("unexpected error description: %q", result.ErrorDescription)
	}
}

func TestCheckWorkCorrectHasNilErrorStep(t *testing.T) {
	response := `{"is_correct": true, "first_error_step": null, "error_description": "", "correction_guidance": "", "overall_feedback": "Well done"}`
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.CheckWork(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsCorrect {
		t.Error("expected correct verdict")
	}
	if result.FirstErrorStep != nil {
		t.Errorf("correct work should have nil first error step, got %v", *result.FirstErrorStep)
	}
}

func TestCheckWorkProseWrappedJSON(t *testing.T) {
	response := "Sure! Here is my assessment:\n" +
		`{"is_correct": true, "first_error_step": null, "error_description": "", "correction_guidance": "", "overall_feedback": "Good"}` +
		"\nLet me know if you need more."
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.CheckWork(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsCorrect || result.OverallFeedback != "Good" {
		t.Errorf("JSON embedded in prose should parse, got %+v", result)
	}
}

func TestCheckWorkTextFallback(t *testing.T) {
	response := "I think step two looks wrong but I cannot be sure."
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.CheckWork(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if result.IsCorrect {
		t.Error("fallback verdict should flag work for review")
	}
	if result.CorrectionGuidance != response {
		t.Errorf("fallback should carry the raw response, got %q", result.CorrectionGuidance)
	}
	if result.ErrorDescription != "Could not parse tutor response" {
		t.Errorf("unexpected fallback description: %q", result.ErrorDescription)
	}
}

func TestCheckWorkProviderError(t *testing.T) {
	svc := NewTutorService(&stubCompleter{err: errors.New("rate limited")})

	if _, err := svc.CheckWork(context.Background(), nil, nil); err == nil {
		t.Fatal("provider errors should propagate")
	}
}

func TestNextStepParsesResult(t *testing.T) {
	response := `{"work_is_accurate": true, "accuracy_feedback": "All good", "next_step_hint": "Divide both sides by 2", "encouragement": "Nice work!"}`
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.NextStep(context.Background(), []map[string]any{{"work": "2x=8"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.WorkIsAccurate {
		t.Error("expected accurate work")
	}
	if result.NextStepHint != "Divide both sides by 2" {
		t.Errorf("unexpected hint: %q", result.NextStepHint)
	}
}

func TestNextStepTextFallback(t *testing.T) {
	response := "Just divide both sides by two."
	svc := NewTutorService(&stubCompleter{response: response})

	result, err := svc.NextStep(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if !result.WorkIsAccurate {
		t.Error("text fallback assumes the work is accurate")
	}
	if result.NextStepHint != response {
		t.Errorf("fallback should carry the raw response as the hint, got %q", result.NextStepHint)
	}
}

func TestTutorPromptContainsWorkAndLesson(t *testing.T) {
	completer := &stubCompleter{response: `{"is_correct": true}`}
	svc := NewTutorService(completer)

	svc.CheckWork(context.Background(),
		[]map[string]any{{"expression": "2x=8"}},
		map[string]any{"topic": "linear equations"})

	if len(completer.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(completer.prompts))
	}
	prompt := completer.prompts[0]
	if !strings.Contains(prompt, "2x=8") {
		t.Errorf("prompt missing student work:\n%s", prompt)
	}
	if !strings.Contains(prompt, "linear equations") {
		t.Errorf("prompt missing lesson context:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Step 1:") {
		t.Errorf("work steps should be numbered:\n%s", prompt)
	}
}

func TestFormatStudentWorkEmpty(t *testing.T) {
	if got := formatStudentWork(nil); got != "No work steps provided." {
		t.Errorf("unexpected empty-work format: %q", got)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"leading prose", `Here you go: {"a":1}`, `{"a":1}`},
		{"trailing prose", `{"a":1} hope that helps`, `{"a":1}`},
		{"no object", "no json here", "no json here"},
		{"nested braces", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
