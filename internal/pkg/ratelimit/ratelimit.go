// Package ratelimit caps how many requests a key (usually a client IP) may
// make within a fixed window.
//
// Two drivers exist: an in-process store for single-replica deployments and a
// redis store whose counters are shared by every replica.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpmail/internal/pkg/clock"
)

const (
	// DriverMemory keeps counters in process memory.
	DriverMemory = "memory"
	// DriverRedis keeps counters in redis.
	DriverRedis = "redis"
)

var (
	// ErrUnknownDriver is returned by NewFromDriver for unsupported driver names.
	ErrUnknownDriver = errors.New("unknown rate limit driver")
	// ErrRedisRequired is returned when the redis driver is selected without a client.
	ErrRedisRequired = errors.New("redis client is required for redis rate limit driver")
	// ErrInvalidQuota is returned when max or window are not positive.
	ErrInvalidQuota = errors.New("rate limit max and window must be positive")
)

// Result describes the state of a key after a hit.
type Result struct {
	// Allowed reports whether the hit fits in the quota.
	Allowed bool
	// Limit is the quota per window.
	Limit int
	// Remaining is how many hits are left in the current window.
	Remaining int
	// ResetAfter is the time until the current window ends.
	ResetAfter time.Duration
}

// Limiter counts hits per key.
type Limiter interface {
	// Allow records one hit for key and reports whether it is within quota.
	Allow(ctx context.Context, key string) (Result, error)
	// Close releases resources held by the limiter.
	Close() error
}

// Options configures NewFromDriver.
type Options struct {
	// Max is the number of hits allowed per window.
	Max int
	// Window is the length of a counting window.
	Window time.Duration
	// Clock drives the memory driver; defaults to the system clock.
	Clock clock.Clocker
	// Redis is required by the redis driver.
	Redis *redis.Client
	// Prefix namespaces redis keys; defaults to "ratelimit:".
	Prefix string
}

// NewFromDriver builds the Limiter for driver.
func NewFromDriver(driver string, opts Options) (Limiter, error) {
	if opts.Max <= 0 || opts.Window <= 0 {
		return nil, ErrInvalidQuota
	}

	switch driver {
	case DriverMemory, "":
		clk := opts.Clock
		if clk == nil {
			clk = clock.New()
		}
		return NewMemory(opts.Max, opts.Window, clk), nil
	case DriverRedis:
		if opts.Redis == nil {
			return nil, ErrRedisRequired
		}
		return NewRedis(opts.Redis, opts.Max, opts.Window, opts.Prefix), nil
	default:
		return nil, ErrUnknownDriver
	}
}

func newResult(count, limit int, resetAfter time.Duration) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	if resetAfter < 0 {
		resetAfter = 0
	}

	return Result{
		Allowed:    count <= limit,
		Limit:      limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}
}
