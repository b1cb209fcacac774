package database

import (
	"context"
	"time"

	"github.com/emberworks/content-sync/pkg/common/config"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// OpenRedis returns a client handle or nil when Redis is unreachable. The
// catalog adapter treats a nil client as "cache disabled" rather than failing.
func OpenRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).Warn("Failed to connect to Redis, cache disabled")
		_ = client.Close()
		return nil
	}

	logger.Log.Info("Connected to Redis")
	return client
}

func CloseRedis(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
