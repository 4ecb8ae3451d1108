package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "pesa/internal/platform/redis"
)

// Redis tracks login failures in Redis so every instance behind a load
// balancer sees the same counter.
type Redis struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(key string) string {
	return "pesa:lockout:" + key
}

// RecordFailure bumps the failure counter and returns the new count. The
// expiry is set on the first failure only so the window slides from the
// first miss, matching the in-memory store.
func (s *Redis) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	k := redisKey(key)
	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("lockout incr: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("lockout expire: %w", err)
		}
	}
	return int(count), nil
}

// Failures returns the live failure count for key.
func (s *Redis) Failures(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, redisKey(key)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("lockout get: %w", err)
	}
	return count, nil
}

// Reset clears the counter for key, typically after a successful login.
func (s *Redis) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("lockout del: %w", err)
	}
	return nil
}
