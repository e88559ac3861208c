package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMCQQuestionValidation(t *testing.T) {
	options := []string{"A", "B", "C", "D"}

	_, err := NewMCQQuestion("a", "Q", 1, 5, []string{"A", "B"}, 0)
	assert.ErrorIs(t, err, ErrMCQOptions)

	_, err = NewMCQQuestion("a", "Q", 1, 5, options, 4)
	assert.ErrorIs(t, err, ErrMCQCorrectOption)

	_, err = NewMCQQuestion("a", "Q", 1, 5, options, -1)
	assert.ErrorIs(t, err, ErrMCQCorrectOption)

	_, err = NewMCQQuestion("a", "Q", 1, 0, options, 0)
	assert.ErrorIs(t, err, ErrMarks)

	q, err := NewMCQQuestion("a", "Q", 1, 5, options, 3)
	require.NoError(t, err)
	assert.Equal(t, QuestionTypeMCQ, q.Type)
	assert.Empty(t, q.KeyPoints)
}

func TestNewSubjectiveQuestionValidation(t *testing.T) {
	_, err := NewSubjectiveQuestion("a", "Q", 1, 5, []string{"one", "two"})
	assert.ErrorIs(t, err, ErrKeyPoints)

	_, err = NewSubjectiveQuestion("a", "Q", 1, -1, []string{"one", "two", "three"})
	assert.ErrorIs(t, err, ErrMarks)

	q, err := NewSubjectiveQuestion("a", "Q", 1, 10, []string{"one", "two", "three"})
	require.NoError(t, err)
	assert.Equal(t, QuestionTypeSubjective, q.Type)
	assert.Empty(t, q.Options)
}

func TestSanitizedExcludesEvaluatorSecrets(t *testing.T) {
	mcq, err := NewMCQQuestion("a", "Pick", 1, 5, []string{"A", "B", "C", "D"}, 2)
	require.NoError(t, err)
	mcq.ID = "q1"

	cq := mcq.Sanitized()
	assert.Equal(t, "q1", cq.ID)
	assert.Equal(t, []string{"A", "B", "C", "D"}, cq.Options)

	subj, err := NewSubjectiveQuestion("a", "Explain", 2, 10, []string{"x", "y", "z"})
	require.NoError(t, err)

	// Subjective payloads carry no options and, by type, no key points.
	assert.Nil(t, subj.Sanitized().Options)
}

func TestInterviewStatusTerminal(t *testing.T) {
	assert.False(t, InterviewStatusInProgress.Terminal())
	assert.True(t, InterviewStatusCompleted.Terminal())
	assert.True(t, InterviewStatusAbandoned.Terminal())
}
