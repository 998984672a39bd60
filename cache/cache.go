package cache

import (
	"context"
	"time"
)

// Counter is a time-bounded integer store keyed by string. The TTL passed to
// Increment only applies when the key is created; later increments keep the
// original expiry.
type Counter interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Evict(ctx context.Context, key string) error
}
