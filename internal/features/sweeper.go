package features

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"sona/internal/repo"
)

// Sweeper marks long-idle in-progress interviews abandoned. Abandonment is
// never triggered from inside the session pipeline; this background pass
// and the explicit give-up call are the only writers of that state.
type Sweeper struct {
	repo     *repo.Repository
	session  *Session
	interval time.Duration
	maxAge   time.Duration
	logger   *zap.Logger
}

func NewSweeper(repo *repo.Repository, session *Session, logger *zap.Logger) *Sweeper {
	interval := viper.GetDuration("sweeper.interval")
	if interval == 0 {
		interval = 10 * time.Minute
	}
	maxAge := viper.GetDuration("sweeper.max_age")
	if maxAge == 0 {
		maxAge = 4 * time.Hour
	}

	return &Sweeper{
		repo:     repo,
		session:  session,
		interval: interval,
		maxAge:   maxAge,
		logger:   logger,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info("Starting interview sweeper",
		zap.Duration("interval", s.interval),
		zap.Duration("maxAge", s.maxAge))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				s.logger.Info("Interview sweeper stopped")
				return
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.maxAge)
	stale, err := s.repo.Interview.ListStale(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to list stale interviews", zap.Error(err))
		return
	}

	for _, interview := range stale {
		if err := s.session.Abandon(ctx, interview.ID); err != nil {
			s.logger.Error("Failed to abandon stale interview",
				zap.String("interviewId", interview.ID), zap.Error(err))
			continue
		}
		s.logger.Info("Abandoned stale interview",
			zap.String("interviewId", interview.ID),
			zap.Time("startedAt", interview.StartedAt))
	}
}
