package repository

import (
	"context"
	"time"
)

// StateStore holds short-lived key-value state: one-time auth tokens,
// refresh-token records and cached admin views.
// Implementations: Redis (multi-instance) or in-memory (single instance).
// Get and Take return (nil, nil) for a missing or expired key.
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Take reads and removes key atomically, so a one-time token can be
	// redeemed once.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Incr adds one to the decimal counter at key and returns the new value.
	// A missing key counts from zero. Counters never expire.
	Incr(ctx context.Context, key string) (int64, error)
}
