package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// SetNX acquires key for ttl iff it is unset; used as a dispatch lease.
	SetNX(ctx context.Context, key, val string, ttl time.Duration) (bool, error)
}
