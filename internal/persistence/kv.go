package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by KV.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// KV is a TTL-keyed ephemeral store shared across requests.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}
