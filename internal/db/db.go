package db

import (
	"context"
	"time"
)

// Store is the shared key-value backend. It holds search cache entries
// and the completion budget counters.
type Store interface {
	Pinger
	Cache
	Counters
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache holds opaque values that expire.
type Cache interface {
	// Get returns ErrKeyNotFound for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Counters holds integer counters that expire.
type Counters interface {
	// Counter returns the value at key, or 0 when the key does not exist.
	Counter(ctx context.Context, key string) (int64, error)
	// AddCounter adds delta to key and returns the new value.
	// ttl is applied only while the key has no expiry, so repeated adds never extend it.
	AddCounter(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}
