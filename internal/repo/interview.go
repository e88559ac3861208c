package repo

import (
	"context"
	"time"

	"sona/internal/model"
)

type IInterview interface {
	Create(ctx context.Context, interview *model.Interview) error
	Get(ctx context.Context, id string) (*model.Interview, error)
	ListByAgent(ctx context.Context, agentID string) ([]*model.Interview, error)
	SetIntro(ctx context.Context, id, intro string) error
	// AddScore atomically increments the running total. The increment form
	// (not read-modify-write in the caller) is what keeps concurrent answer
	// submissions from losing updates.
	AddScore(ctx context.Context, id string, delta float64) error
	Complete(ctx context.Context, id string, completedAt time.Time, recordingURL string) error
	SetRecordingURL(ctx context.Context, id, url string) error
	SetStatus(ctx context.Context, id string, status model.InterviewStatus) error
	ListStale(ctx context.Context, startedBefore time.Time) ([]*model.Interview, error)
}

type PgInterview struct {
	db *pgdb
}

const interviewColumns = `id, agent_id, candidate_name, candidate_email, status,
	total_score, max_score, candidate_intro, recording_url, started_at, completed_at`

func (r *PgInterview) Create(ctx context.Context, interview *model.Interview) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO interviews (id, agent_id, candidate_name, candidate_email,
			status, total_score, max_score, candidate_intro, recording_url, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		interview.ID, interview.AgentID, interview.CandidateName,
		interview.CandidateEmail, interview.Status, interview.TotalScore,
		interview.MaxScore, interview.CandidateIntro, interview.RecordingURL,
		interview.StartedAt)
	return err
}

func scanInterview(row interface{ Scan(dest ...any) error }) (*model.Interview, error) {
	var iv model.Interview
	err := row.Scan(
		&iv.ID, &iv.AgentID, &iv.CandidateName, &iv.CandidateEmail, &iv.Status,
		&iv.TotalScore, &iv.MaxScore, &iv.CandidateIntro, &iv.RecordingURL,
		&iv.StartedAt, &iv.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *PgInterview) Get(ctx context.Context, id string) (*model.Interview, error) {
	iv, err := scanInterview(r.db.q(ctx).QueryRow(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return iv, nil
}

func (r *PgInterview) ListByAgent(ctx context.Context, agentID string) ([]*model.Interview, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE agent_id = $1 ORDER BY started_at DESC`,
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interviews []*model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}

func (r *PgInterview) SetIntro(ctx context.Context, id, intro string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE interviews SET candidate_intro = $2 WHERE id = $1`, id, intro)
	return err
}

func (r *PgInterview) AddScore(ctx context.Context, id string, delta float64) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE interviews SET total_score = total_score + $2 WHERE id = $1`, id, delta)
	return err
}

func (r *PgInterview) Complete(ctx context.Context, id string, completedAt time.Time, recordingURL string) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE interviews SET status = $2, completed_at = $3,
			recording_url = CASE WHEN $4 <> '' THEN $4 ELSE recording_url END
		WHERE id = $1`,
		id, model.InterviewStatusCompleted, completedAt, recordingURL)
	return err
}

func (r *PgInterview) SetRecordingURL(ctx context.Context, id, url string) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE interviews SET recording_url = $2 WHERE id = $1`, id, url)
	return err
}

func (r *PgInterview) SetStatus(ctx context.Context, id string, status model.InterviewStatus) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE interviews SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r *PgInterview) ListStale(ctx context.Context, startedBefore time.Time) ([]*model.Interview, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE status = $1 AND started_at < $2`,
		model.InterviewStatusInProgress, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interviews []*model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}
