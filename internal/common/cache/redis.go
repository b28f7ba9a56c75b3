// internal/common/cache/redis.go
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"referwell-matching/internal/common/logger"
)

// Redis backs the cache port with a shared Redis instance so cache state
// survives restarts and is shared across replicas.
type Redis struct {
	client *redis.Client
	logger logger.Logger
}

func NewRedis(client *redis.Client, log logger.Logger) *Redis {
	return &Redis{
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache get failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		// A failed write only costs a recompute on the next call.
		r.logger.Warn("cache set failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("cache delete failed", map[string]interface{}{
			"keys":  keys,
			"error": err,
		})
	}
}

func (r *Redis) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("cache scan failed", map[string]interface{}{
			"prefix": prefix,
			"error":  err,
		})
		return
	}
	if len(keys) > 0 {
		r.Delete(ctx, keys...)
	}
}
