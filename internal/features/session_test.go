package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sona/internal/model"
	"sona/internal/repo"
	sv "sona/internal/service"
	"sona/pkg/blob"
	rabbit "sona/pkg/rabbit/pkg"
)

const testShareLink = "abc123def0"

type sessionFixture struct {
	repo    *repo.Repository
	session *Session
	agent   *model.Agent
	mcq     *model.Question
	subj    *model.Question
}

// newSessionFixture seeds a published agent with one MCQ (marks 2, correct
// option 1) and one subjective question (marks 10, 3 key points).
func newSessionFixture(t *testing.T, llm sv.LLM) *sessionFixture {
	t.Helper()
	ctx := context.Background()
	r := repo.NewMemory()
	logger := zap.NewNop()

	agent := &model.Agent{
		ID:              "agent-1",
		CreatorID:       42,
		Name:            "Backend Screen",
		EnableFollowUps: true,
		MaxFollowUps:    2,
		ShareableLink:   testShareLink,
		IsPublished:     true,
		TotalMarks:      12,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, r.Agent.Create(ctx, agent))

	mcq, err := model.NewMCQQuestion(agent.ID, "Which option is right?", 1, 2,
		[]string{"A", "B", "C", "D"}, 1)
	require.NoError(t, err)
	mcq.ID = "q-mcq"
	mcq.CreatedAt = time.Now()
	require.NoError(t, r.Question.Create(ctx, mcq))

	subj, err := model.NewSubjectiveQuestion(agent.ID, "Explain the design", 2, 10,
		[]string{"point one", "point two", "point three"})
	require.NoError(t, err)
	subj.ID = "q-subj"
	subj.CreatedAt = time.Now()
	require.NoError(t, r.Question.Create(ctx, subj))

	evaluator := NewEvaluator(llm, logger)
	followUp := NewFollowUpGenerator(llm, evaluator, logger)
	session := NewSession(r, evaluator, followUp, &rabbit.Dummy{}, &blob.Dummy{}, logger)

	return &sessionFixture{repo: r, session: session, agent: agent, mcq: mcq, subj: subj}
}

func (f *sessionFixture) interview(t *testing.T, id string) *model.Interview {
	t.Helper()
	iv, err := f.repo.Interview.Get(context.Background(), id)
	require.NoError(t, err)
	return iv
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	llm := sv.NewMockLLM(sv.MockResponse{
		Content: `{"score": 7, "feedback": "decent", "coveredPoints": ["point one", "point two"], "missedPoints": ["point three"]}`,
	})
	f := newSessionFixture(t, llm)

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Backend Screen", result.AgentName)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, []string{"A", "B", "C", "D"}, result.Questions[0].Options)
	assert.Empty(t, result.Questions[1].Options)

	require.NoError(t, f.session.SubmitIntro(ctx, result.InterviewID, "Hi, I'm Ada"))
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "here is my answer"))
	require.NoError(t, f.session.Complete(ctx, result.InterviewID, ""))

	iv := f.interview(t, result.InterviewID)
	assert.Equal(t, model.InterviewStatusCompleted, iv.Status)
	assert.Equal(t, 9.0, iv.TotalScore)
	assert.Equal(t, 12.0, iv.MaxScore)
	assert.NotNil(t, iv.CompletedAt)
	assert.Equal(t, "Hi, I'm Ada", iv.CandidateIntro)
}

func TestStartRejectsUnpublishedAgent(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())
	require.NoError(t, f.repo.Agent.SetPublished(ctx, f.agent.ID, false))

	_, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	assert.ErrorIs(t, err, ErrAgentNotAvailable)

	_, err = f.session.Start(ctx, "nosuchlink", "Ada", "ada@example.com")
	assert.ErrorIs(t, err, ErrAgentNotAvailable)
}

func TestStartSnapshotsMaxScore(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	// A question added mid-interview must not move the ceiling.
	late, err := model.NewMCQQuestion(f.agent.ID, "Late addition", 3, 50,
		[]string{"A", "B", "C", "D"}, 0)
	require.NoError(t, err)
	late.ID = "q-late"
	require.NoError(t, f.repo.Question.Create(ctx, late))

	assert.Equal(t, 12.0, f.interview(t, result.InterviewID).MaxScore)
}

func TestSubmitAnswerAckOnly(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	// The only candidate-visible outcome is a nil error. Score and
	// correctness stay in the store.
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))

	resp, err := f.repo.Response.Get(ctx, result.InterviewID, f.mcq.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.0, resp.Score)
	require.NotNil(t, resp.IsCorrect)
	assert.True(t, *resp.IsCorrect)
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	err = f.session.SubmitAnswer(ctx, result.InterviewID, "nosuchquestion", "1")
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	// A question that belongs to a different agent is equally invisible.
	other := &model.Agent{ID: "agent-2", CreatorID: 7, ShareableLink: "other12345", CreatedAt: time.Now()}
	require.NoError(t, f.repo.Agent.Create(ctx, other))
	foreign, err := model.NewMCQQuestion(other.ID, "Foreign", 1, 5, []string{"A", "B", "C", "D"}, 0)
	require.NoError(t, err)
	foreign.ID = "q-foreign"
	require.NoError(t, f.repo.Question.Create(ctx, foreign))

	err = f.session.SubmitAnswer(ctx, result.InterviewID, foreign.ID, "0")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestRetriedSubmissionDoesNotDoubleAdd(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))

	assert.Equal(t, 2.0, f.interview(t, result.InterviewID).TotalScore)

	responses, err := f.repo.Response.ListByInterview(ctx, result.InterviewID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestMonotonicMergeEitherOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("stronger then weaker", func(t *testing.T) {
		llm := sv.NewMockLLM(
			sv.MockResponse{Content: `{"score": 7, "feedback": "good"}`},
			sv.MockResponse{Content: `{"score": 4, "feedback": "weaker"}`},
		)
		f := newSessionFixture(t, llm)
		result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
		require.NoError(t, err)

		require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "first answer"))
		require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "second answer"))

		resp, err := f.repo.Response.Get(ctx, result.InterviewID, f.subj.ID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, resp.Score)
		assert.Equal(t, 7.0, f.interview(t, result.InterviewID).TotalScore)
	})

	t.Run("weaker then stronger", func(t *testing.T) {
		llm := sv.NewMockLLM(
			sv.MockResponse{Content: `{"score": 4, "feedback": "weaker"}`},
			sv.MockResponse{Content: `{"score": 7, "feedback": "good"}`},
		)
		f := newSessionFixture(t, llm)
		result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
		require.NoError(t, err)

		require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "first answer"))
		require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "second answer"))

		resp, err := f.repo.Response.Get(ctx, result.InterviewID, f.subj.ID)
		require.NoError(t, err)
		assert.Equal(t, 7.0, resp.Score)
		assert.Equal(t, 7.0, f.interview(t, result.InterviewID).TotalScore)
	})
}

func TestScoreStaysWithinBounds(t *testing.T) {
	ctx := context.Background()
	llm := sv.NewMockLLM(
		sv.MockResponse{Content: `{"score": 999, "feedback": "inflated"}`},
		sv.MockResponse{Content: `{"score": 999, "feedback": "inflated again"}`},
	)
	f := newSessionFixture(t, llm)

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "answer"))
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "answer again"))

	iv := f.interview(t, result.InterviewID)
	assert.GreaterOrEqual(t, iv.TotalScore, 0.0)
	assert.LessOrEqual(t, iv.TotalScore, iv.MaxScore)
}

func TestSubmitAnswerProviderFailureStillProgresses(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "answer"))

	resp, err := f.repo.Response.Get(ctx, result.InterviewID, f.subj.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, resp.Score)
	assert.Equal(t, manualReviewFeedback, resp.EvaluationFeedback)
}

func TestGenerateFollowUpGating(t *testing.T) {
	ctx := context.Background()
	llm := sv.NewMockLLM(
		sv.MockResponse{Content: `{"score": 4, "feedback": "partial", "missedPoints": ["point two"]}`},
		sv.MockResponse{Content: "What about the second point?"},
	)
	f := newSessionFixture(t, llm)

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	_, err = f.session.GenerateFollowUp(ctx, result.InterviewID, f.mcq.ID, "1")
	assert.ErrorIs(t, err, ErrInvalidQuestionForFollowUp)

	followUp, err := f.session.GenerateFollowUp(ctx, result.InterviewID, f.subj.ID, "my answer")
	require.NoError(t, err)
	assert.Equal(t, "What about the second point?", followUp)
}

func TestGenerateFollowUpRespectsCap(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	// Two recorded rounds exhaust maxFollowUps=2.
	require.NoError(t, f.session.SubmitFollowUpAnswer(ctx, result.InterviewID, f.subj.ID, "fq1", "fa1"))
	require.NoError(t, f.session.SubmitFollowUpAnswer(ctx, result.InterviewID, f.subj.ID, "fq2", "fa2"))

	_, err = f.session.GenerateFollowUp(ctx, result.InterviewID, f.subj.ID, "my answer")
	assert.ErrorIs(t, err, ErrFollowUpLimit)
}

func TestGenerateFollowUpDisabled(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())
	f.agent.EnableFollowUps = false
	require.NoError(t, f.repo.Agent.Update(ctx, f.agent))

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	_, err = f.session.GenerateFollowUp(ctx, result.InterviewID, f.subj.ID, "my answer")
	assert.ErrorIs(t, err, ErrFollowUpsDisabled)
}

func TestFollowUpAnswerBeforeMainAnswer(t *testing.T) {
	ctx := context.Background()
	llm := sv.NewMockLLM(sv.MockResponse{Content: `{"score": 6, "feedback": "fine"}`})
	f := newSessionFixture(t, llm)

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	// Out-of-order delivery: the follow-up lands first in a defensive row.
	require.NoError(t, f.session.SubmitFollowUpAnswer(ctx, result.InterviewID, f.subj.ID, "fq", "fa"))

	resp, err := f.repo.Response.Get(ctx, result.InterviewID, f.subj.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.CandidateAnswer)
	assert.Equal(t, 0.0, resp.Score)

	// The main answer merges into the same row.
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "main answer"))

	resp, err = f.repo.Response.Get(ctx, result.InterviewID, f.subj.ID)
	require.NoError(t, err)
	assert.Equal(t, "main answer", resp.CandidateAnswer)
	assert.Equal(t, 6.0, resp.Score)
	assert.Equal(t, []string{"fq"}, resp.FollowUpQuestions)
	assert.Equal(t, []string{"fa"}, resp.FollowUpAnswers)
	assert.Equal(t, 6.0, f.interview(t, result.InterviewID).TotalScore)
}

func TestFollowUpAnswerUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	err = f.session.SubmitFollowUpAnswer(ctx, result.InterviewID, "nosuchquestion", "fq", "fa")
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	// A question that belongs to a different agent is equally invisible.
	other := &model.Agent{ID: "agent-2", CreatorID: 7, ShareableLink: "other12345", CreatedAt: time.Now()}
	require.NoError(t, f.repo.Agent.Create(ctx, other))
	foreign, err := model.NewSubjectiveQuestion(other.ID, "Foreign", 1, 5,
		[]string{"point one", "point two", "point three"})
	require.NoError(t, err)
	foreign.ID = "q-foreign"
	require.NoError(t, f.repo.Question.Create(ctx, foreign))

	err = f.session.SubmitFollowUpAnswer(ctx, result.InterviewID, foreign.ID, "fq", "fa")
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	// Neither rejection may have minted a ledger row.
	responses, err := f.repo.Response.ListByInterview(ctx, result.InterviewID)
	require.NoError(t, err)
	assert.Empty(t, responses)

	// Follow-up answers are audit material, not score input.
	responses, err = f.repo.Response.ListByInterview(ctx, result.InterviewID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestCompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1"))

	require.NoError(t, f.session.Complete(ctx, result.InterviewID, ""))
	require.NoError(t, f.session.Complete(ctx, result.InterviewID, "https://cdn/rec.webm"))

	iv := f.interview(t, result.InterviewID)
	assert.Equal(t, model.InterviewStatusCompleted, iv.Status)
	assert.Equal(t, 2.0, iv.TotalScore)
	assert.Equal(t, "https://cdn/rec.webm", iv.RecordingURL)
}

func TestCompleteAbandonedRejected(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.session.Abandon(ctx, result.InterviewID))

	err = f.session.Complete(ctx, result.InterviewID, "")
	assert.ErrorIs(t, err, ErrInterviewClosed)
}

func TestAbandonTerminal(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	require.NoError(t, f.session.Abandon(ctx, result.InterviewID))
	assert.Equal(t, model.InterviewStatusAbandoned, f.interview(t, result.InterviewID).Status)

	err = f.session.SubmitAnswer(ctx, result.InterviewID, f.mcq.ID, "1")
	assert.ErrorIs(t, err, ErrInterviewClosed)

	// Abandoning again is a no-op, and a completed interview is left alone.
	require.NoError(t, f.session.Abandon(ctx, result.InterviewID))
}

func TestUploadRecording(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, sv.NewMockLLM())

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)

	recording, err := f.session.UploadRecording(ctx, result.InterviewID, []byte("webm bytes"), "video/webm")
	require.NoError(t, err)
	assert.Contains(t, recording.StorageKey, "recordings/"+result.InterviewID+"/")
	assert.Equal(t, int64(10), recording.FileSize)

	iv := f.interview(t, result.InterviewID)
	assert.Equal(t, recording.URL, iv.RecordingURL)

	recordings, err := f.repo.Recording.ListByInterview(ctx, result.InterviewID)
	require.NoError(t, err)
	assert.Len(t, recordings, 1)
}

func TestResponsesCreatorOnly(t *testing.T) {
	ctx := context.Background()
	llm := sv.NewMockLLM(sv.MockResponse{Content: `{"score": 5, "feedback": "ok"}`})
	f := newSessionFixture(t, llm)

	result, err := f.session.Start(ctx, testShareLink, "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, f.session.SubmitAnswer(ctx, result.InterviewID, f.subj.ID, "answer"))

	responses, err := f.session.Responses(ctx, f.agent.CreatorID, result.InterviewID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, "ok", responses[0].EvaluationFeedback)

	_, err = f.session.Responses(ctx, 999, result.InterviewID)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
