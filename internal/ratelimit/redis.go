package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
)

// Result is the outcome of one rate-limit check. It is recomputed on every
// call; the Redis counter is the single source of truth and nothing is
// cached locally.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// checkScript increments the counter and reads its TTL in one atomic step,
// arming the window expiry on first hit. Correctness holds under arbitrary
// concurrent callers with no local locking.
var checkScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {count, ttl}
`)

// RedisRateLimiter implements fixed-window rate limiting on a Redis counter
type RedisRateLimiter struct {
	client     *redis.Client
	rejections metric.Int64Counter
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
// rejections may be nil when metrics are disabled.
func NewRedisRateLimiter(client *redis.Client, rejections metric.Int64Counter) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:     client,
		rejections: rejections,
	}
}

// Check consumes one unit against key and reports whether the request is
// allowed within the window.
func (rl *RedisRateLimiter) Check(ctx context.Context, key string, limit, windowSeconds int) (*Result, error) {
	raw, err := checkScript.Run(ctx, rl.client, []string{key}, windowSeconds).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if len(raw) != 2 {
		return nil, fmt.Errorf("rate limit check: unexpected script reply %v", raw)
	}

	count, ok1 := raw[0].(int64)
	ttl, ok2 := raw[1].(int64)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("rate limit check: unexpected script reply %v", raw)
	}

	// A missing TTL (unset or persisted key) falls back to the full window
	if ttl < 0 {
		ttl = int64(windowSeconds)
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Duration(ttl) * time.Second),
		Limit:     limit,
	}

	if !result.Allowed && rl.rejections != nil {
		rl.rejections.Add(ctx, 1)
	}

	return result, nil
}
