package outbound

import (
	"context"
	"time"
)

// WindowStore is the shared ordered store behind the sliding-window limiter.
// Members are scored by their event time in milliseconds.
type WindowStore interface {
	// AtomicWindowUpdate drops members scored at or before windowStart, counts the rest,
	// adds (now, nonce) and refreshes the key expiry, all in one transaction.
	// The returned count excludes the new member.
	AtomicWindowUpdate(ctx context.Context, key string, windowStart, now time.Time, nonce string, ttl time.Duration) (int64, error)
	// CountWindow drops expired members and counts the rest without recording an event.
	CountWindow(ctx context.Context, key string, windowStart time.Time) (int64, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
