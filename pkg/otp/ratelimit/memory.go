// Package ratelimit enforces the cooldown between OTP sends to the same
// phone number. The cooldown is charged only after a confirmed
// delivery, so a failed send never makes the caller wait.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// MemoryLimiter tracks last-send timestamps in a process-local map.
type MemoryLimiter struct {
	mu       sync.Mutex
	lastSent map[string]time.Time

	cooldown time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryLimiter creates a limiter with the given cooldown and starts
// a pruning loop on sweepInterval. Pruning is memory hygiene only:
// lookups already treat stale records as non-blocking, so the sweep
// cadence is independent of the cooldown. A non-positive interval
// disables pruning.
func NewMemoryLimiter(cooldown, sweepInterval time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		lastSent: make(map[string]time.Time),
		cooldown: cooldown,
		done:     make(chan struct{}),
	}
	if sweepInterval > 0 {
		go l.pruneLoop(sweepInterval)
	}
	return l
}

// Check reports whether a send is allowed. It never writes; only
// RecordSuccess charges the cooldown.
func (l *MemoryLimiter) Check(ctx context.Context, phone string) (bool, int, error) {
	l.mu.Lock()
	ts, ok := l.lastSent[phone]
	l.mu.Unlock()

	if !ok {
		return true, 0, nil
	}
	elapsed := time.Since(ts)
	if elapsed >= l.cooldown {
		return true, 0, nil
	}
	retryAfter := int(math.Ceil((l.cooldown - elapsed).Seconds()))
	return false, retryAfter, nil
}

// RecordSuccess stamps the last-sent time for phone. Called only after
// a dispatch succeeded on some channel.
func (l *MemoryLimiter) RecordSuccess(ctx context.Context, phone string) error {
	l.mu.Lock()
	l.lastSent[phone] = time.Now()
	l.mu.Unlock()
	return nil
}

// Close stops the pruning loop.
func (l *MemoryLimiter) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	return nil
}

func (l *MemoryLimiter) pruneLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.prune(time.Now())
		}
	}
}

// prune drops records older than the cooldown window.
func (l *MemoryLimiter) prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for phone, ts := range l.lastSent {
		if now.Sub(ts) >= l.cooldown {
			delete(l.lastSent, phone)
			removed++
		}
	}
	return removed
}
