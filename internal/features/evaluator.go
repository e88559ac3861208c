package features

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sona/internal/model"
	sv "sona/internal/service"
)

const manualReviewFeedback = "Error evaluating response. Please review manually."

// Evaluation is the rubric result for one subjective answer.
type Evaluation struct {
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	CoveredPoints []string `json:"coveredPoints"`
	MissedPoints  []string `json:"missedPoints"`
}

// Evaluator scores candidate answers. MCQ scoring is deterministic and
// local; subjective scoring goes through the LLM with a fixed fallback so a
// provider outage never blocks a session.
type Evaluator struct {
	llm    sv.LLM
	logger *zap.Logger
}

func NewEvaluator(llm sv.LLM, logger *zap.Logger) *Evaluator {
	return &Evaluator{llm: llm, logger: logger}
}

// EvaluateMCQ compares the submitted option index against the correct one.
// The answer arrives as the stringified index; anything that does not parse
// to the exact correct index scores zero. No partial credit.
func (e *Evaluator) EvaluateMCQ(question *model.Question, candidateAnswer string) (float64, bool) {
	selected, err := strconv.Atoi(strings.TrimSpace(candidateAnswer))
	if err != nil || selected != question.CorrectOption {
		return 0, false
	}
	return float64(question.Marks), true
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// EvaluateSubjective scores a free-text answer against the question's key
// points. Never returns an error: any provider or parse failure degrades to
// a zero score with a manual-review rationale and all key points missed.
func (e *Evaluator) EvaluateSubjective(ctx context.Context, question *model.Question, candidateAnswer string) *Evaluation {
	prompt := buildEvaluationPrompt(question, candidateAnswer)

	raw, err := e.llm.Complete(ctx, prompt, 0.3)
	if err != nil {
		e.logger.Error("Subjective evaluation failed",
			zap.String("questionId", question.ID), zap.Error(err))
		return e.fallback(question)
	}

	match := jsonObjectRe.FindString(raw)
	if match == "" {
		e.logger.Error("No JSON object in evaluation response",
			zap.String("questionId", question.ID))
		return e.fallback(question)
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(match), &eval); err != nil {
		e.logger.Error("Failed to parse evaluation JSON",
			zap.String("questionId", question.ID), zap.Error(err))
		return e.fallback(question)
	}

	// Clamp unconditionally. The model is asked for a bounded score but the
	// bound is enforced here, not trusted.
	maxMarks := float64(question.Marks)
	if eval.Score < 0 {
		eval.Score = 0
	}
	if eval.Score > maxMarks {
		eval.Score = maxMarks
	}
	return &eval
}

func (e *Evaluator) fallback(question *model.Question) *Evaluation {
	return &Evaluation{
		Score:         0,
		Feedback:      manualReviewFeedback,
		CoveredPoints: []string{},
		MissedPoints:  append([]string(nil), question.KeyPoints...),
	}
}

func buildEvaluationPrompt(question *model.Question, candidateAnswer string) string {
	var points strings.Builder
	for i, point := range question.KeyPoints {
		fmt.Fprintf(&points, "%d. %s\n", i+1, point)
	}

	return fmt.Sprintf(`You are an expert evaluator for interview responses.

Question: %s

Key Points (that should be covered):
%s
Candidate's Answer:
"""
%s
"""

Evaluate the answer and:
1. Assign a score out of %d marks
2. Provide brief constructive feedback
3. List which key points were covered
4. List which key points were missed

Return ONLY valid JSON with this structure:
{
  "score": <number between 0 and %d>,
  "feedback": "Brief feedback here",
  "coveredPoints": ["Point text", ...],
  "missedPoints": ["Point text", ...]
}

Be fair and consider partial credit. Return only JSON, no additional text.`,
		question.QuestionText, points.String(), candidateAnswer,
		question.Marks, question.Marks)
}
