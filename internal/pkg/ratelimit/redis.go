package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The first hit of a window sets the expiry, so the window is fixed from that
// hit and every replica sees the same counter.
var hitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis is a fixed-window counter stored in redis.
type Redis struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedis returns a redis-backed limiter allowing max hits per window.
func NewRedis(client *redis.Client, max int, win time.Duration, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit:"
	}

	return &Redis{
		client: client,
		max:    max,
		window: win,
		prefix: prefix,
	}
}

// Allow records one hit for key.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := hitScript.Run(ctx, r.client, []string{r.prefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, err
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("unexpected rate limit script reply: %v", vals)
	}

	return newResult(int(vals[0]), r.max, time.Duration(vals[1])*time.Millisecond), nil
}

// Close is a no-op; the redis client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
