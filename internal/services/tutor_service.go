package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// WorkCheckResult is the verdict on a student's written work.
type WorkCheckResult struct {
	IsCorrect          bool   `json:"is_correct"`
	FirstErrorStep     *int   `json:"first_error_step"`
	ErrorDescription   string `json:"error_description"`
	CorrectionGuidance string `json:"correction_guidance"`
	OverallFeedback    string `json:"overall_feedback"`
}

// NextStepResult is the accuracy check plus a hint for the next step.
type NextStepResult struct {
	WorkIsAccurate   bool   `json:"work_is_accurate"`
	AccuracyFeedback string `json:"accuracy_feedback"`
	NextStepHint     string `json:"next_step_hint"`
	Encouragement    string `json:"encouragement"`
}

// TutorService reviews student work step-by-step via the completion
// provider, requesting JSON verdicts.
type TutorService struct {
	completions Completer
}

// NewTutorService creates a tutor service
func NewTutorService(completions Completer) *TutorService {
	return &TutorService{completions: completions}
}

const checkWorkPromptTemplate = `You are an expert tutor reviewing a student's mathematical work. Your task is to:

1. Carefully examine each step of the student's work
2. Identify the FIRST incorrect step (if any)
3. Explain why it's incorrect
4. Provide guidance on how to fix it

%s

%s

Please respond in JSON format with the following structure:
{
    "is_correct": boolean,
    "first_error_step": number or null,
    "error_description": "string describing what's wrong",
    "correction_guidance": "string explaining how to fix it",
    "overall_feedback": "string with general feedback"
}

If all steps are correct, set "is_correct" to true and "first_error_step" to null.`

const nextStepPromptTemplate = `You are an expert tutor helping a student with their mathematical work. Your task is to:

1. First, check if the current work is accurate
2. Then, provide a helpful hint for the next step (without giving away the complete solution)

%s

%s

Please respond in JSON format with the following structure:
{
    "work_is_accurate": boolean,
    "accuracy_feedback": "string describing any issues with current work",
    "next_step_hint": "string with a helpful hint for the next step",
    "encouragement": "string with encouraging feedback"
}

Make sure your hint guides the student toward the solution without solving it completely for them.`

// CheckWork reviews the student's work steps and identifies the first
// incorrect one. Malformed provider output degrades to a documented
// text-fallback shape instead of an error.
func (s *TutorService) CheckWork(ctx context.Context, workSteps []map[string]any, lesson map[string]any) (WorkCheckResult, error) {
	prompt := fmt.Sprintf(checkWorkPromptTemplate, formatLessonContext(lesson), formatStudentWork(workSteps))

	raw, err := s.completions.Complete(ctx, prompt, 1000, 0.3)
	if err != nil {
		return WorkCheckResult{}, err
	}

	var result WorkCheckResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		log.Printf("⚠️ [TUTOR] Check-work response was not valid JSON, using text fallback")
		return WorkCheckResult{
			IsCorrect:          false,
			ErrorDescription:   "Could not parse tutor response",
			CorrectionGuidance: raw,
			OverallFeedback:    "Please review the work manually",
		}, nil
	}

	return result, nil
}

// NextStep checks accuracy and produces a hint for the next step.
func (s *TutorService) NextStep(ctx context.Context, workSteps []map[string]any, lesson map[string]any) (NextStepResult, error) {
	prompt := fmt.Sprintf(nextStepPromptTemplate, formatLessonContext(lesson), formatStudentWork(workSteps))

	raw, err := s.completions.Complete(ctx, prompt, 1000, 0.3)
	if err != nil {
		return NextStepResult{}, err
	}

	var result NextStepResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		log.Printf("⚠️ [TUTOR] Next-step response was not valid JSON, using text fallback")
		return NextStepResult{
			WorkIsAccurate:   true,
			AccuracyFeedback: "Could not parse tutor response",
			NextStepHint:     raw,
			Encouragement:    "Keep up the good work!",
		}, nil
	}

	return result, nil
}

func formatStudentWork(workSteps []map[string]any) string {
	if len(workSteps) == 0 {
		return "No work steps provided."
	}

	var b strings.Builder
	b.WriteString("Student's work (step by step):\n")
	for i, step := range workSteps {
		data, err := json.MarshalIndent(step, "", "  ")
		if err != nil {
			data = []byte("{}")
		}
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, data)
	}
	return b.String()
}

func formatLessonContext(lesson map[string]any) string {
	if len(lesson) == 0 {
		return "No lesson context provided (empty lesson)."
	}

	data, err := json.MarshalIndent(lesson, "", "  ")
	if err != nil {
		return "No lesson context provided (empty lesson)."
	}
	return fmt.Sprintf("Lesson context:\n%s", data)
}

// extractJSON strips any prose surrounding the outermost JSON object in
// the response.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
