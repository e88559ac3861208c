package repo

import (
	"context"

	"sona/internal/model"
)

type IAgent interface {
	Create(ctx context.Context, agent *model.Agent) error
	Get(ctx context.Context, id string) (*model.Agent, error)
	GetByShareLink(ctx context.Context, token string) (*model.Agent, error)
	ListByCreator(ctx context.Context, creatorID uint64) ([]*model.Agent, error)
	Update(ctx context.Context, agent *model.Agent) error
	SetPublished(ctx context.Context, id string, published bool) error
	SetTotalMarks(ctx context.Context, id string, totalMarks int) error
	Delete(ctx context.Context, id string) error
}

type PgAgent struct {
	db *pgdb
}

const agentColumns = `id, creator_id, name, gender, appearance, voice_type,
	conversational_style, enable_follow_ups, max_follow_ups, shareable_link,
	is_published, total_marks, created_at, updated_at`

func (r *PgAgent) Create(ctx context.Context, agent *model.Agent) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO agents (id, creator_id, name, gender, appearance, voice_type,
			conversational_style, enable_follow_ups, max_follow_ups, shareable_link,
			is_published, total_marks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`,
		agent.ID, agent.CreatorID, agent.Name, agent.Gender, agent.Appearance,
		agent.VoiceType, agent.ConversationalStyle, agent.EnableFollowUps,
		agent.MaxFollowUps, agent.ShareableLink, agent.IsPublished,
		agent.TotalMarks, agent.CreatedAt)
	return err
}

func (r *PgAgent) scanOne(ctx context.Context, query string, args ...any) (*model.Agent, error) {
	var a model.Agent
	err := r.db.q(ctx).QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.CreatorID, &a.Name, &a.Gender, &a.Appearance, &a.VoiceType,
		&a.ConversationalStyle, &a.EnableFollowUps, &a.MaxFollowUps,
		&a.ShareableLink, &a.IsPublished, &a.TotalMarks, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &a, nil
}

func (r *PgAgent) Get(ctx context.Context, id string) (*model.Agent, error) {
	return r.scanOne(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
}

func (r *PgAgent) GetByShareLink(ctx context.Context, token string) (*model.Agent, error) {
	return r.scanOne(ctx, `SELECT `+agentColumns+` FROM agents WHERE shareable_link = $1`, token)
}

func (r *PgAgent) ListByCreator(ctx context.Context, creatorID uint64) ([]*model.Agent, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE creator_id = $1 ORDER BY created_at DESC`,
		creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*model.Agent
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(
			&a.ID, &a.CreatorID, &a.Name, &a.Gender, &a.Appearance, &a.VoiceType,
			&a.ConversationalStyle, &a.EnableFollowUps, &a.MaxFollowUps,
			&a.ShareableLink, &a.IsPublished, &a.TotalMarks, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}

func (r *PgAgent) Update(ctx context.Context, agent *model.Agent) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		UPDATE agents SET name = $2, gender = $3, appearance = $4, voice_type = $5,
			conversational_style = $6, enable_follow_ups = $7, max_follow_ups = $8,
			updated_at = now()
		WHERE id = $1`,
		agent.ID, agent.Name, agent.Gender, agent.Appearance, agent.VoiceType,
		agent.ConversationalStyle, agent.EnableFollowUps, agent.MaxFollowUps)
	return err
}

func (r *PgAgent) SetPublished(ctx context.Context, id string, published bool) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE agents SET is_published = $2, updated_at = now() WHERE id = $1`,
		id, published)
	return err
}

func (r *PgAgent) SetTotalMarks(ctx context.Context, id string, totalMarks int) error {
	_, err := r.db.q(ctx).Exec(ctx,
		`UPDATE agents SET total_marks = $2, updated_at = now() WHERE id = $1`,
		id, totalMarks)
	return err
}

func (r *PgAgent) Delete(ctx context.Context, id string) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	return err
}
