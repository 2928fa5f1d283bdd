package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed event IDs to prevent duplicate dispatch
type IdempotencyStore interface {
	// MarkProcessed returns true if the event was newly marked,
	// false if it had already been processed
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	// Release forgets eventID so a failed delivery can be retried
	Release(ctx context.Context, eventID string) error
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed event ID is remembered
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
