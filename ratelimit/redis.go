package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter enforces the fixed window with INCR plus an expiry set on the
// first hit, so the budget is shared across all server instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "rate_limit:",
	}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit Limit) (Decision, error) {
	redisKey := r.prefix + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, limit.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set rate limit window expiry: %w", err)
		}
	}

	if count > int64(limit.Max) {
		ttl, err := r.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = limit.Window
		}
		return Decision{
			Allow:      false,
			Remaining:  0,
			RetryAfter: ttl,
		}, nil
	}

	return Decision{
		Allow:     true,
		Remaining: limit.Max - int(count),
	}, nil
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
