package features

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sona/internal/model"
	sv "sona/internal/service"
)

const fallbackFollowUp = "Is there anything else you'd like to add to your answer? Perhaps some additional aspects we haven't covered yet?"

// FollowUpGenerator produces one conversational follow-up question for a
// subjective answer. It re-runs evaluation to find the gaps, then asks the
// LLM to probe them without naming them outright. Stateless: persistence of
// the exchange belongs to the session.
type FollowUpGenerator struct {
	llm       sv.LLM
	evaluator *Evaluator
	logger    *zap.Logger
}

func NewFollowUpGenerator(llm sv.LLM, evaluator *Evaluator, logger *zap.Logger) *FollowUpGenerator {
	return &FollowUpGenerator{llm: llm, evaluator: evaluator, logger: logger}
}

// Generate returns a single follow-up question for the candidate's latest
// answer. Only subjective questions qualify. Provider failures degrade to a
// fixed generic question, never to an error.
func (g *FollowUpGenerator) Generate(ctx context.Context, question *model.Question, candidateAnswer string) (string, error) {
	if question.Type != model.QuestionTypeSubjective {
		return "", ErrInvalidQuestionForFollowUp
	}

	evaluation := g.evaluator.EvaluateSubjective(ctx, question, candidateAnswer)

	missedPointsText := "some key aspects"
	if len(evaluation.MissedPoints) > 0 {
		missedPointsText = strings.Join(evaluation.MissedPoints, ", ")
	}

	prompt := fmt.Sprintf(`You are conducting an interview. The candidate answered a subjective question, but missed some important points.

Original Question: %s

Candidate's Answer:
"""
%s
"""

Key points that were missed or not fully covered:
%s

Generate ONE interactive, conversational follow-up question that:
- Asks the candidate what they might have missed in their first response
- Encourages them to think about additional aspects they haven't covered
- Is friendly and helpful, not confrontational
- Guides them to cover the missed points without directly stating them
- Feels natural and conversational

Return ONLY the follow-up question, nothing else.`,
		question.QuestionText, candidateAnswer, missedPointsText)

	raw, err := g.llm.Complete(ctx, prompt, 0.8)
	if err != nil {
		g.logger.Error("Follow-up generation failed",
			zap.String("questionId", question.ID), zap.Error(err))
		return fallbackFollowUp, nil
	}

	followUp := strings.TrimSpace(raw)
	followUp = strings.Trim(followUp, `"'`)
	if followUp == "" {
		return fallbackFollowUp, nil
	}
	return followUp, nil
}
