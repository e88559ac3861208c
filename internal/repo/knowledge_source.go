package repo

import (
	"context"

	"sona/internal/model"
)

type IKnowledgeSource interface {
	Create(ctx context.Context, source *model.KnowledgeSource) error
	Get(ctx context.Context, id string) (*model.KnowledgeSource, error)
	ListByAgent(ctx context.Context, agentID string) ([]*model.KnowledgeSource, error)
	Delete(ctx context.Context, id string) error
	DeleteByAgent(ctx context.Context, agentID string) error
}

type PgKnowledgeSource struct {
	db *pgdb
}

const sourceColumns = `id, agent_id, type, content, scraped_content, document_url, created_at`

func (r *PgKnowledgeSource) Create(ctx context.Context, source *model.KnowledgeSource) error {
	_, err := r.db.q(ctx).Exec(ctx, `
		INSERT INTO knowledge_sources (id, agent_id, type, content, scraped_content,
			document_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		source.ID, source.AgentID, source.Type, source.Content,
		source.ScrapedContent, source.DocumentURL, source.CreatedAt)
	return err
}

func (r *PgKnowledgeSource) Get(ctx context.Context, id string) (*model.KnowledgeSource, error) {
	var s model.KnowledgeSource
	err := r.db.q(ctx).QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM knowledge_sources WHERE id = $1`, id).Scan(
		&s.ID, &s.AgentID, &s.Type, &s.Content, &s.ScrapedContent,
		&s.DocumentURL, &s.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &s, nil
}

func (r *PgKnowledgeSource) ListByAgent(ctx context.Context, agentID string) ([]*model.KnowledgeSource, error) {
	rows, err := r.db.q(ctx).Query(ctx,
		`SELECT `+sourceColumns+` FROM knowledge_sources WHERE agent_id = $1 ORDER BY created_at ASC`,
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*model.KnowledgeSource
	for rows.Next() {
		var s model.KnowledgeSource
		if err := rows.Scan(
			&s.ID, &s.AgentID, &s.Type, &s.Content, &s.ScrapedContent,
			&s.DocumentURL, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

func (r *PgKnowledgeSource) Delete(ctx context.Context, id string) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM knowledge_sources WHERE id = $1`, id)
	return err
}

func (r *PgKnowledgeSource) DeleteByAgent(ctx context.Context, agentID string) error {
	_, err := r.db.q(ctx).Exec(ctx, `DELETE FROM knowledge_sources WHERE agent_id = $1`, agentID)
	return err
}
