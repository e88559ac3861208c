package repo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"sona/internal/model"
)

type IResponse interface {
	// Merge upserts the ledger row for (interview, question) and returns the
	// score delta: the amount by which the question's best score increased.
	// A weaker re-evaluation never lowers the stored score, so the delta is
	// never negative.
	Merge(ctx context.Context, response *model.Response) (float64, error)
	// AppendFollowUp grows the parallel follow-up arrays, creating the row
	// if the main answer has not arrived yet (out-of-order delivery).
	AppendFollowUp(ctx context.Context, interviewID, questionID, followUpQuestion, followUpAnswer string) error
	Get(ctx context.Context, interviewID, questionID string) (*model.Response, error)
	ListByInterview(ctx context.Context, interviewID string) ([]*model.Response, error)
}

type PgResponse struct {
	db *pgdb
}

const responseColumns = `id, interview_id, question_id, candidate_answer, is_correct,
	score, evaluation_feedback, follow_up_questions, follow_up_answers, answered_at`

func (r *PgResponse) Merge(ctx context.Context, response *model.Response) (float64, error) {
	// pgx encodes a nil []string as SQL NULL, which would both violate the
	// NOT NULL array columns on insert and nullify array_cat on update.
	followUpQuestions := response.FollowUpQuestions
	if followUpQuestions == nil {
		followUpQuestions = []string{}
	}
	followUpAnswers := response.FollowUpAnswers
	if followUpAnswers == nil {
		followUpAnswers = []string{}
	}

	var delta float64
	err := r.db.WithTx(ctx, func(ctx context.Context) error {
		// Insert first. ON CONFLICT DO NOTHING makes a concurrent first
		// submission lose without an error and fall through to the update
		// path, where FOR UPDATE blocks until the winner commits.
		var insertedID string
		err := r.db.q(ctx).QueryRow(ctx, `
			INSERT INTO responses (id, interview_id, question_id, candidate_answer,
				is_correct, score, evaluation_feedback, follow_up_questions,
				follow_up_answers, answered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (interview_id, question_id) DO NOTHING
			RETURNING id`,
			response.ID, response.InterviewID, response.QuestionID,
			response.CandidateAnswer, response.IsCorrect, response.Score,
			response.EvaluationFeedback, followUpQuestions,
			followUpAnswers, response.AnsweredAt).Scan(&insertedID)
		if err == nil {
			delta = response.Score
			return nil
		}
		if err != pgx.ErrNoRows {
			return err
		}

		var existing model.Response
		err = r.db.q(ctx).QueryRow(ctx, `
			SELECT id, score, evaluation_feedback FROM responses
			WHERE interview_id = $1 AND question_id = $2 FOR UPDATE`,
			response.InterviewID, response.QuestionID).
			Scan(&existing.ID, &existing.Score, &existing.EvaluationFeedback)
		if err != nil {
			return err
		}

		best := existing.Score
		if response.Score > best {
			best = response.Score
		}
		delta = best - existing.Score

		feedback := response.EvaluationFeedback
		if feedback == "" {
			feedback = existing.EvaluationFeedback
		}

		_, err = r.db.q(ctx).Exec(ctx, `
			UPDATE responses SET candidate_answer = $2, is_correct = $3, score = $4,
				evaluation_feedback = $5,
				follow_up_questions = follow_up_questions || $6,
				follow_up_answers = follow_up_answers || $7
			WHERE id = $1`,
			existing.ID, response.CandidateAnswer, response.IsCorrect, best,
			feedback, followUpQuestions, followUpAnswers)
		return err
	})
	return delta, err
}

func (r *PgResponse) AppendFollowUp(ctx context.Context, interviewID, questionID, followUpQuestion, followUpAnswer string) error {
	return r.db.WithTx(ctx, func(ctx context.Context) error {
		tag, err := r.db.q(ctx).Exec(ctx, `
			UPDATE responses SET
				follow_up_questions = follow_up_questions || $3,
				follow_up_answers = follow_up_answers || $4
			WHERE interview_id = $1 AND question_id = $2`,
			interviewID, questionID, []string{followUpQuestion}, []string{followUpAnswer})
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		// Follow-up landed before the main answer; the answer will merge in.
		_, err = r.db.q(ctx).Exec(ctx, `
			INSERT INTO responses (id, interview_id, question_id, candidate_answer,
				score, follow_up_questions, follow_up_answers, answered_at)
			VALUES (gen_random_uuid(), $1, $2, '', 0, $3, $4, now())
			ON CONFLICT (interview_id, question_id) DO UPDATE SET
				follow_up_questions = responses.follow_up_questions || EXCLUDED.follow_up_questions,
				follow_up_answers = responses.follow_up_answers || EXCLUDED.follow_up_answers`,
			interviewID, questionID, []string{followUpQuestion}, []string{followUpAnswer})
		return err
	})
}

func (r *PgResponse) Get(ctx context.Context, interviewID, questionID string) (*model.Response, error) {
	var resp model.Response
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE interview_id = $1 AND question_id = $2`,
		interviewID, questionID).Scan(
		&resp.ID, &resp.InterviewID, &resp.QuestionID, &resp.CandidateAnswer,
		&resp.IsCorrect, &resp.Score, &resp.EvaluationFeedback,
		&resp.FollowUpQuestions, &resp.FollowUpAnswers, &resp.AnsweredAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &resp, nil
}

func (r *PgResponse) ListByInterview(ctx context.Context, interviewID string) ([]*model.Response, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE interview_id = $1 ORDER BY answered_at ASC`,
		interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*model.Response
	for rows.Next() {
		var resp model.Response
		if err := rows.Scan(
			&resp.ID, &resp.InterviewID, &resp.QuestionID, &resp.CandidateAnswer,
			&resp.IsCorrect, &resp.Score, &resp.EvaluationFeedback,
			&resp.FollowUpQuestions, &resp.FollowUpAnswers, &resp.AnsweredAt,
		); err != nil {
			return nil, err
		}
		responses = append(responses, &resp)
	}
	return responses, rows.Err()
}
