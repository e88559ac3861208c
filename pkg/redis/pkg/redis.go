package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// New builds a redis client from viper config. Returns nil when no address
// is configured; callers treat a nil client as cache-disabled.
func New(logger *zap.Logger) *redis.Client {
	viper.SetDefault("redis.dial_timeout", 5000)
	viper.BindEnv("redis.address", "REDIS_ADDRESS")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	address := viper.GetString("redis.address")
	if address == "" {
		logger.Info("No redis configured, share link cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        address,
		Username:    viper.GetString("redis.username"),
		Password:    viper.GetString("redis.password"),
		DB:          viper.GetInt("redis.db"),
		DialTimeout: time.Duration(viper.GetInt("redis.dial_timeout")) * time.Millisecond,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("Redis unreachable, share link cache disabled", zap.Error(err))
		return nil
	}

	logger.Info("Connected to redis", zap.String("address", address))
	return client
}
