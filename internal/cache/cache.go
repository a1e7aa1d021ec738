// Package cache is the injected TTL cache used by the conflict-diff fetch.
// It is best effort: a miss or a backend failure just means the caller
// recomputes.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	// Get returns the cached payload and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores the payload for at most ttl.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Noop satisfies Cache without storing anything; used in tests and when no
// Redis is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Put(context.Context, string, []byte, time.Duration) error { return nil }
