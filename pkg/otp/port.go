package otp

import (
	"context"
	"time"
)

// Store owns the lifecycle of verification entries. All operations on
// the same phone must be atomic with respect to each other so the
// attempts cap cannot be raced past; implementations either serialize
// behind a lock (memory) or rely on atomic server-side primitives
// (redis HINCRBY).
type Store interface {
	// Put creates or overwrites the entry for phone with attempts=0 and
	// verified=false. Overwriting discards the previous entry's pending
	// state, including any scheduled grace-window removal.
	Put(ctx context.Context, phone, code string, ttl time.Duration) error

	// Get returns the entry for phone, or nil when none exists. Expired
	// entries may still be returned until swept; callers check expiry.
	Get(ctx context.Context, phone string) (*Entry, error)

	// IncrementAttempts bumps the failed-attempt counter and returns the
	// post-increment count.
	IncrementAttempts(ctx context.Context, phone string) (int, error)

	// MarkVerified flips the verified flag and schedules removal after
	// the store's grace window, keeping repeated confirmations
	// idempotent in the meantime.
	MarkVerified(ctx context.Context, phone string) error

	// Delete removes the entry for phone, if any.
	Delete(ctx context.Context, phone string) error

	// Close stops background sweeping and releases resources.
	Close() error
}

// RateLimiter enforces the cooldown between sends to one phone. The
// check never writes; the timestamp is recorded only after a confirmed
// delivery so transport failures do not penalize the caller.
type RateLimiter interface {
	// Check reports whether a send is allowed now and, when it is not,
	// how many whole seconds remain until it will be.
	Check(ctx context.Context, phone string) (allowed bool, retryAfterSeconds int, err error)

	// RecordSuccess stamps the last-sent time for phone.
	RecordSuccess(ctx context.Context, phone string) error

	// Close stops background pruning.
	Close() error
}

// Dispatcher delivers a code over the preferred channel, falling back
// per the channel policy. Exactly one successful provider message is
// sent per call.
type Dispatcher interface {
	Send(ctx context.Context, phone, code string, ttl time.Duration, preferred Channel) (DispatchResult, error)
}
