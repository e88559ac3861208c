package features

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sv "sona/internal/service"
)

func newFollowUpGenerator(llm sv.LLM) *FollowUpGenerator {
	logger := zap.NewNop()
	return NewFollowUpGenerator(llm, NewEvaluator(llm, logger), logger)
}

func TestGenerateFollowUpRejectsMCQ(t *testing.T) {
	g := newFollowUpGenerator(sv.NewMockLLM())

	_, err := g.Generate(context.Background(), mcqFixture(t), "2")
	assert.ErrorIs(t, err, ErrInvalidQuestionForFollowUp)
}

func TestGenerateFollowUpFallbackOnProviderFailure(t *testing.T) {
	// Empty mock: both the internal evaluation and the follow-up completion
	// fail, and the caller still gets a usable question.
	g := newFollowUpGenerator(sv.NewMockLLM())

	followUp, err := g.Generate(context.Background(), subjectiveFixture(t), "my answer")
	require.NoError(t, err)
	assert.Equal(t, fallbackFollowUp, followUp)
}

func TestGenerateFollowUpTrimsWrappingQuotes(t *testing.T) {
	llm := sv.NewMockLLM(
		sv.MockResponse{Content: `{"score": 4, "feedback": "partial", "missedPoints": ["point three"]}`},
		sv.MockResponse{Content: `"What aspects of point three did you consider?"`},
	)
	g := newFollowUpGenerator(llm)

	followUp, err := g.Generate(context.Background(), subjectiveFixture(t), "my answer")
	require.NoError(t, err)
	assert.Equal(t, "What aspects of point three did you consider?", followUp)
}

func TestGenerateFollowUpTargetsMissedPoints(t *testing.T) {
	llm := sv.NewMockLLM(
		sv.MockResponse{Content: `{"score": 4, "feedback": "partial", "missedPoints": ["point two", "point three"]}`},
		sv.MockResponse{Content: "Could you expand on the remaining aspects?"},
	)
	g := newFollowUpGenerator(llm)

	_, err := g.Generate(context.Background(), subjectiveFixture(t), "my answer")
	require.NoError(t, err)

	require.Len(t, llm.Calls, 2)
	assert.Equal(t, float32(0.3), llm.Calls[0].Temperature)
	assert.Equal(t, float32(0.8), llm.Calls[1].Temperature)
	assert.Contains(t, llm.Calls[1].Prompt, "point two, point three")
}

func TestGenerateFollowUpEmptyResponseFallsBack(t *testing.T) {
	llm := sv.NewMockLLM(
		sv.MockResponse{Content: `{"score": 4, "feedback": "partial"}`},
		sv.MockResponse{Content: "  \"\"  "},
	)
	g := newFollowUpGenerator(llm)

	followUp, err := g.Generate(context.Background(), subjectiveFixture(t), "my answer")
	require.NoError(t, err)
	assert.Equal(t, fallbackFollowUp, followUp)
}
