package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter is a fixed-window counter shared by every instance using the same redis
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter allows limit calls per window for each key
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisLimiter {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "merchant:rate_limit"
	}
	if window < time.Second {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Key returns the redis key counting calls for key
func (l *RedisLimiter) Key(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, strings.TrimSpace(key))
}

// Allow implements port.RateLimiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 || strings.TrimSpace(key) == "" {
		return true, 0, nil
	}

	windowMs := l.window.Milliseconds()
	raw, err := fixedWindowScript.Run(ctx, l.client, []string{l.Key(key)}, windowMs).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to run rate limit script: %w", err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		return false, 0, fmt.Errorf("unexpected redis limiter response shape: %T", raw)
	}
	count, ok := values[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter count type: %T", values[0])
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("unexpected redis limiter ttl type: %T", values[1])
	}
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	if int(count) > l.limit {
		return false, time.Duration(ttlMs) * time.Millisecond, nil
	}
	return true, 0, nil
}

// Verify interface compliance
var _ port.RateLimiter = (*RedisLimiter)(nil)
