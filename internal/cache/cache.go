// Package cache holds the read-through cache for event reads. Backends share the
// Store interface; invalidation bumps a generation counter so every older key is
// orphaned at once and left to expire.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache miss")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}
