package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/emberworks/content-sync/pkg/common/logger"
)

// Cache stores catalog search responses in Redis so repeated sync runs within
// the TTL do not hit the upstream API. Cache failures are logged and ignored;
// the adapter always works without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("catalog:search:%x", sum[:8])
}

func (c *Cache) Get(ctx context.Context, query string) ([]Game, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Debug("catalog cache read failed")
		}
		return nil, false
	}

	var games []Game
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, false
	}
	return games, true
}

func (c *Cache) Set(ctx context.Context, query string, games []Game) {
	if c == nil {
		return
	}
	data, err := json.Marshal(games)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(query), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("catalog cache write failed")
	}
}
