// Package ratelimit throttles generation traffic per project. Saving a
// generation is expensive (filesystem writes, diff rendering), so the save
// and create endpoints are limited; reads are not.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lyzr/genstore/common/logger"
)

// Fixed-window counter evaluated atomically in Redis. Returns the count
// after increment and the window's remaining TTL.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`

// Result contains the outcome of a rate limit check
type Result struct {
	Allowed           bool
	CurrentCount      int64
	Limit             int64
	RetryAfterSeconds int64
}

// Limiter provides per-project and global rate limiting using Redis + Lua
type Limiter struct {
	redis  *redis.Client
	script *redis.Script
	log    *logger.Logger
}

// NewLimiter creates a rate limiter backed by the given Redis client
func NewLimiter(redisClient *redis.Client, log *logger.Logger) *Limiter {
	return &Limiter{
		redis:  redisClient,
		script: redis.NewScript(rateLimitScript),
		log:    log,
	}
}

// CheckGlobalLimit checks the service-wide generation limit over a one
// minute window
func (l *Limiter) CheckGlobalLimit(ctx context.Context, limit int64) (*Result, error) {
	return l.checkLimit(ctx, "rate_limit:global", limit, 60)
}

// CheckProjectLimit checks the per-project generation limit
func (l *Limiter) CheckProjectLimit(ctx context.Context, projectID string, limit int64, windowSec int) (*Result, error) {
	key := fmt.Sprintf("rate_limit:project:%s", projectID)
	return l.checkLimit(ctx, key, limit, windowSec)
}

func (l *Limiter) checkLimit(ctx context.Context, key string, limit int64, windowSec int) (*Result, error) {
	values, err := l.script.Run(ctx, l.redis, []string{key}, windowSec).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check for %s: %w", key, err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("rate limit script returned %d values, want 2", len(values))
	}

	result := &Result{
		CurrentCount: values[0],
		Limit:        limit,
		Allowed:      values[0] <= limit,
	}
	if !result.Allowed {
		result.RetryAfterSeconds = values[1]
		l.log.Warn("rate limit exceeded",
			"key", key,
			"count", result.CurrentCount,
			"limit", limit,
			"retry_after_sec", result.RetryAfterSeconds,
		)
	}

	return result, nil
}
