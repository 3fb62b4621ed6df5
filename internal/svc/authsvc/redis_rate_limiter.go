package authsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// recordFailureScript increments the counter in KEYS[1] and, for a positive
// window in ARGV[1] milliseconds, sets its expiry when it has none yet.
var recordFailureScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
local window = tonumber(ARGV[1])
if window > 0 and redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], window)
end
return n
`)

// RedisRateLimiter implements RateLimiter on Redis counters, so the limit holds
// across service instances. Each counter key expires one window after its first failure.
type RedisRateLimiter struct {
	cfg       RateLimiterConfig
	client    redis.UniversalClient
	keyPrefix string
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// NewRedisRateLimiter creates a RedisRateLimiter. The client is shared and not closed by the limiter.
func NewRedisRateLimiter(cfg RateLimiterConfig, client redis.UniversalClient, keyPrefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		cfg:       cfg,
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (l *RedisRateLimiter) key(key string) string {
	return l.keyPrefix + "ratelimit:login:" + key
}

// IsBlocked implements RateLimiter.IsBlocked.
func (l *RedisRateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("get counter: %w", err)
	}

	return count >= l.cfg.Threshold, nil
}

// RecordFailure implements RateLimiter.RecordFailure.
func (l *RedisRateLimiter) RecordFailure(ctx context.Context, key string) (int, error) {
	count, err := recordFailureScript.Run(ctx, l.client, []string{l.key(key)}, l.cfg.Window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("incr counter: %w", err)
	}

	return count, nil
}

// Reset implements RateLimiter.Reset.
func (l *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("delete counter: %w", err)
	}

	return nil
}
