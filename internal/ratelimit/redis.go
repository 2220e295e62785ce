package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// incrScript counts one attempt and opens the window on the first. It returns the count
// and the window's remaining time in milliseconds.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if n == 1 or ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisLimiter is a Limiter shared by every process using the same Redis.
type RedisLimiter struct {
	client redis.Scripter
	scope  string
	max    int
	window time.Duration
}

// NewRedisLimiter allows limit attempts per key per window. scope namespaces the keys.
func NewRedisLimiter(client redis.Scripter, scope string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, scope: scope, max: limit, window: window}
}

// Allow counts one attempt for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := incrScript.Run(ctx, l.client, []string{keyPrefix + l.scope + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > l.max {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: l.max - count}, nil
}
