package ports

import (
	"context"
	"time"
)

// CacheEntry wraps a cached value with its storage metadata. Expiry is
// decided by the reader against its own clock so stores stay dumb.
type CacheEntry struct {
	Value     any
	StoredAt  time.Time
	ExpiresAt time.Time
}

func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

type CacheStore interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Set(ctx context.Context, key string, entry CacheEntry) error
	Delete(ctx context.Context, key string) error
}
