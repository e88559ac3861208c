package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned by Get-style methods when no row matches.
var ErrNotFound = errors.New("record not found")

// TxRunner executes fn atomically. Repository methods called with the ctx
// passed to fn participate in the same transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Agent     IAgent
	Question  IQuestion
	Interview IInterview
	Response  IResponse
	Source    IKnowledgeSource
	Recording IRecording

	runner TxRunner
}

// WithTx runs fn in a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.runner.WithTx(ctx, fn)
}

// NewPostgres builds the repository on a pgx connection pool.
func NewPostgres(pool *pgxpool.Pool) *Repository {
	db := &pgdb{pool: pool}
	return &Repository{
		Agent:     &PgAgent{db: db},
		Question:  &PgQuestion{db: db},
		Interview: &PgInterview{db: db},
		Response:  &PgResponse{db: db},
		Source:    &PgKnowledgeSource{db: db},
		Recording: &PgRecording{db: db},
		runner:    db,
	}
}

// NewMemory builds an in-memory repository. Used by tests and as the
// fallback store when no database is configured.
func NewMemory() *Repository {
	s := newMemStore()
	return &Repository{
		Agent:     &MemAgent{store: s},
		Question:  &MemQuestion{store: s},
		Interview: &MemInterview{store: s},
		Response:  &MemResponse{store: s},
		Source:    &MemKnowledgeSource{store: s},
		Recording: &MemRecording{store: s},
		runner:    s,
	}
}
