package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Connect opens a pgx pool from viper config. Returns nil (not an error)
// when no database is configured so the caller can fall back to the
// in-memory store.
func Connect(ctx context.Context, logger *zap.Logger) (*pgxpool.Pool, error) {
	viper.BindEnv("db.user", "DB_USER")
	viper.BindEnv("db.password", "DB_PASSWORD")
	viper.BindEnv("db.host", "DB_HOST")
	viper.BindEnv("db.port", "DB_PORT")
	viper.BindEnv("db.name", "DB_NAME")

	host := viper.GetString("db.host")
	if host == "" {
		logger.Warn("No database configured, using in-memory store")
		return nil, nil
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		viper.GetString("db.user"),
		viper.GetString("db.password"),
		host,
		viper.GetString("db.port"),
		viper.GetString("db.name"))

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connected successfully", zap.String("host", host))
	return pool, nil
}
