package repo

import (
	"context"

	"sona/internal/model"
)

type IQuestion interface {
	Create(ctx context.Context, question *model.Question) error
	Get(ctx context.Context, id string) (*model.Question, error)
	ListByAgent(ctx context.Context, agentID string) ([]*model.Question, error)
	Update(ctx context.Context, question *model.Question) error
	SetOrder(ctx context.Context, id string, order int) error
	Delete(ctx context.Context, id string) error
	DeleteByAgent(ctx context.Context, agentID string) (int, error)
	SumMarks(ctx context.Context, agentID string) (int, error)
	CountByAgent(ctx context.Context, agentID string) (int, error)
}

type PgQuestion struct {
	db *pgdb
}

const questionColumns = `id, agent_id, type, question_text, question_order, marks,
	options, correct_option, key_points, created_at`

func (r *PgQuestion) Create(ctx context.Context, question *model.Question) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO questions (id, agent_id, type, question_text, question_order,
			marks, options, correct_option, key_points, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		question.ID, question.AgentID, question.Type, question.QuestionText,
		question.Order, question.Marks, question.Options, question.CorrectOption,
		question.KeyPoints, question.CreatedAt)
	return err
}

func (r *PgQuestion) Get(ctx context.Context, id string) (*model.Question, error) {
	var q model.Question
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id).Scan(
		&q.ID, &q.AgentID, &q.Type, &q.QuestionText, &q.Order, &q.Marks,
		&q.Options, &q.CorrectOption, &q.KeyPoints, &q.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &q, nil
}

// ListByAgent returns the agent's questions in presentation order.
func (r *PgQuestion) ListByAgent(ctx context.Context, agentID string) ([]*model.Question, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE agent_id = $1 ORDER BY question_order ASC`,
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.AgentID, &q.Type, &q.QuestionText, &q.Order, &q.Marks,
			&q.Options, &q.CorrectOption, &q.KeyPoints, &q.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, &q)
	}
	return questions, rows.Err()
}

func (r *PgQuestion) Update(ctx context.Context, question *model.Question) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE questions SET question_text = $2, question_order = $3, marks = $4,
			options = $5, correct_option = $6, key_points = $7
		WHERE id = $1`,
		question.ID, question.QuestionText, question.Order, question.Marks,
		question.Options, question.CorrectOption, question.KeyPoints)
	return err
}

func (r *PgQuestion) SetOrder(ctx context.Context, id string, order int) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE questions SET question_order = $2 WHERE id = $1`, id, order)
	return err
}

func (r *PgQuestion) Delete(ctx context.Context, id string) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

func (r *PgQuestion) DeleteByAgent(ctx context.Context, agentID string) (int, error) {
	tag, err := r.db.q(ctx).Exec(ctx, `DELETE FROM questions WHERE agent_id = $1`, agentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PgQuestion) SumMarks(ctx context.Context, agentID string) (int, error) {
	var sum int
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(marks), 0) FROM questions WHERE agent_id = $1`, agentID).Scan(&sum)
	return sum, err
}

func (r *PgQuestion) CountByAgent(ctx context.Context, agentID string) (int, error) {
	var count int
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE agent_id = $1`, agentID).Scan(&count)
	return count, err
}
