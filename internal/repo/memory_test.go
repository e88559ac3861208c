package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sona/internal/model"
)

func seedInterview(t *testing.T, r *Repository) *model.Interview {
	t.Helper()
	iv := &model.Interview{
		ID:        "iv-1",
		AgentID:   "agent-1",
		Status:    model.InterviewStatusInProgress,
		MaxScore:  12,
		StartedAt: time.Now(),
	}
	require.NoError(t, r.Interview.Create(context.Background(), iv))
	return iv
}

func TestMergeInsertReturnsFullDelta(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	delta, err := r.Response.Merge(ctx, &model.Response{
		InterviewID: "iv-1", QuestionID: "q-1",
		CandidateAnswer: "answer", Score: 7, AnsweredAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 7.0, delta)
}

func TestMergeIsMonotonic(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	_, err := r.Response.Merge(ctx, &model.Response{
		InterviewID: "iv-1", QuestionID: "q-1", Score: 7,
		EvaluationFeedback: "strong", AnsweredAt: time.Now(),
	})
	require.NoError(t, err)

	// A weaker re-evaluation contributes nothing and lowers nothing.
	delta, err := r.Response.Merge(ctx, &model.Response{
		InterviewID: "iv-1", QuestionID: "q-1", Score: 4,
		CandidateAnswer: "revised", AnsweredAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, delta)

	resp, err := r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, resp.Score)
	assert.Equal(t, "revised", resp.CandidateAnswer)
	assert.Equal(t, "strong", resp.EvaluationFeedback, "empty rationale keeps the previous one")

	// A stronger one contributes only the increase.
	delta, err = r.Response.Merge(ctx, &model.Response{
		InterviewID: "iv-1", QuestionID: "q-1", Score: 9,
		EvaluationFeedback: "stronger", AnsweredAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, delta)

	resp, err = r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, resp.Score)
	assert.Equal(t, "stronger", resp.EvaluationFeedback)
}

func TestMergeNeverDuplicatesRows(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	for i := 0; i < 5; i++ {
		_, err := r.Response.Merge(ctx, &model.Response{
			InterviewID: "iv-1", QuestionID: "q-1",
			Score: float64(i), AnsweredAt: time.Now(),
		})
		require.NoError(t, err)
	}

	responses, err := r.Response.ListByInterview(ctx, "iv-1")
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestMergeStoresEmptyFollowUpArrays(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	// A plain answer carries no follow-ups; the stored row must still hold
	// empty arrays so later appends concatenate instead of starting from
	// nothing (the SQL columns are NOT NULL for the same reason).
	_, err := r.Response.Merge(ctx, &model.Response{
		InterviewID: "iv-1", QuestionID: "q-1",
		CandidateAnswer: "answer", Score: 7, AnsweredAt: time.Now(),
	})
	require.NoError(t, err)

	resp, err := r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	require.NotNil(t, resp.FollowUpQuestions)
	require.NotNil(t, resp.FollowUpAnswers)
	assert.Empty(t, resp.FollowUpQuestions)

	require.NoError(t, r.Response.AppendFollowUp(ctx, "iv-1", "q-1", "fq1", "fa1"))

	resp, err = r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fq1"}, resp.FollowUpQuestions)
	assert.Equal(t, []string{"fa1"}, resp.FollowUpAnswers)
}

func TestMergeConcurrentFirstSubmissions(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	// All racers submit the same evaluation; exactly one delta carries the
	// score and the rest are zero, so the interview total is never inflated.
	var mu sync.Mutex
	total := 0.0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			delta, err := r.Response.Merge(ctx, &model.Response{
				InterviewID: "iv-1", QuestionID: "q-1",
				CandidateAnswer: "answer", Score: 7, AnsweredAt: time.Now(),
			})
			assert.NoError(t, err)
			mu.Lock()
			total += delta
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 7.0, total)

	responses, err := r.Response.ListByInterview(ctx, "iv-1")
	require.NoError(t, err)
	assert.Len(t, responses, 1)
}

func TestAppendFollowUpCreatesDefensiveRow(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	require.NoError(t, r.Response.AppendFollowUp(ctx, "iv-1", "q-1", "fq1", "fa1"))

	resp, err := r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	assert.Empty(t, resp.CandidateAnswer)
	assert.Zero(t, resp.Score)
	assert.Equal(t, []string{"fq1"}, resp.FollowUpQuestions)

	require.NoError(t, r.Response.AppendFollowUp(ctx, "iv-1", "q-1", "fq2", "fa2"))

	resp, err = r.Response.Get(ctx, "iv-1", "q-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fq1", "fq2"}, resp.FollowUpQuestions)
	assert.Equal(t, []string{"fa1", "fa2"}, resp.FollowUpAnswers)
}

func TestAddScoreIsAdditiveUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()
	seedInterview(t, r)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Interview.AddScore(ctx, "iv-1", 0.5))
		}()
	}
	wg.Wait()

	iv, err := r.Interview.Get(ctx, "iv-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, iv.TotalScore)
}

func TestWithTxJoinsInnerCalls(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()
	seedInterview(t, r)

	// The merge and the increment run under one lock acquisition; inner
	// calls must not deadlock on the store mutex.
	err := r.WithTx(ctx, func(ctx context.Context) error {
		delta, err := r.Response.Merge(ctx, &model.Response{
			InterviewID: "iv-1", QuestionID: "q-1", Score: 3, AnsweredAt: time.Now(),
		})
		if err != nil {
			return err
		}
		return r.Interview.AddScore(ctx, "iv-1", delta)
	})
	require.NoError(t, err)

	iv, err := r.Interview.Get(ctx, "iv-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, iv.TotalScore)
}

func TestListStaleFiltersByStatusAndAge(t *testing.T) {
	ctx := context.Background()
	r := NewMemory()

	old := &model.Interview{
		ID: "iv-old", AgentID: "agent-1",
		Status: model.InterviewStatusInProgress, StartedAt: time.Now().Add(-5 * time.Hour),
	}
	fresh := &model.Interview{
		ID: "iv-fresh", AgentID: "agent-1",
		Status: model.InterviewStatusInProgress, StartedAt: time.Now(),
	}
	done := &model.Interview{
		ID: "iv-done", AgentID: "agent-1",
		Status: model.InterviewStatusCompleted, StartedAt: time.Now().Add(-5 * time.Hour),
	}
	require.NoError(t, r.Interview.Create(ctx, old))
	require.NoError(t, r.Interview.Create(ctx, fresh))
	require.NoError(t, r.Interview.Create(ctx, done))

	stale, err := r.Interview.ListStale(ctx, time.Now().Add(-4*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "iv-old", stale[0].ID)
}
