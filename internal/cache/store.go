package cache

import (
	"context"
	"time"
)

// Store represents the shared cache interface used across the application.
// Get treats an expired or missing key as absent. DeletePrefix removes every key
// under a prefix and reports how many were deleted so callers can log the result.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Close() error
}
