package cache

import (
	"context"
	"time"
)

// Store is the shared read cache plus short-lived counters (OTP codes and
// rate counters live here so multi-instance deployments agree). Implementations
// must treat a miss as (nil, false, nil), not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob pattern, e.g. "products:*".
	DeletePattern(ctx context.Context, pattern string) error
	// Incr bumps a counter, setting its TTL on first increment, and returns
	// the new value.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Noop satisfies Store while caching nothing; used when redis is not
// configured. Counters always report 1 so rate limits never trip.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }

func (Noop) Delete(_ context.Context, _ string) error { return nil }

func (Noop) DeletePattern(_ context.Context, _ string) error { return nil }

func (Noop) Incr(_ context.Context, _ string, _ time.Duration) (int64, error) { return 1, nil }
