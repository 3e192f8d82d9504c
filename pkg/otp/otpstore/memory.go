// Package otpstore provides the verification entry stores: an in-memory
// map for single-instance deployments and a Redis-backed variant for
// multi-instance ones. Both keep the per-phone atomicity guarantee the
// verification engine depends on.
package otpstore

import (
	"context"
	"sync"
	"time"

	"github.com/Abraxas-365/phonex/pkg/otp"
)

// memoryEntry pairs the entry with a generation counter. The counter
// guards scheduled grace-window removals: a removal fires only if the
// entry it was scheduled for is still the live one, so a newer Put for
// the same phone is never torn down by a stale timer.
type memoryEntry struct {
	entry otp.Entry
	gen   uint64
}

// MemoryStore is the default, process-local entry store. All operations
// serialize behind one mutex; verification is state-only and
// near-instant, so contention is not a concern at this scale.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	nextGen uint64

	grace time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a store with the given verified-grace window
// and starts a background sweeper that removes expired entries every
// sweepInterval. A non-positive interval disables the sweeper.
func NewMemoryStore(grace, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		grace:   grace,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Put creates or overwrites the entry for phone.
func (s *MemoryStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGen++
	s.entries[phone] = &memoryEntry{
		entry: otp.Entry{
			Phone:     phone,
			Code:      code,
			Attempts:  0,
			Verified:  false,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		},
		gen: s.nextGen,
	}
	return nil
}

// Get returns a copy of the entry for phone, or nil when none exists.
func (s *MemoryStore) Get(ctx context.Context, phone string) (*otp.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	entry := me.entry
	return &entry, nil
}

// IncrementAttempts bumps the failed-attempt counter atomically and
// returns the new count.
func (s *MemoryStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[phone]
	if !ok {
		return 0, storeErrors.New(ErrEntryMissing).WithDetail("phone", phone)
	}
	me.entry.Attempts++
	return me.entry.Attempts, nil
}

// MarkVerified flips the verified flag and schedules removal after the
// grace window so retransmitted confirmations stay idempotent.
func (s *MemoryStore) MarkVerified(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, ok := s.entries[phone]
	if !ok {
		return storeErrors.New(ErrEntryMissing).WithDetail("phone", phone)
	}
	if me.entry.Verified {
		return nil
	}
	me.entry.Verified = true

	gen := me.gen
	time.AfterFunc(s.grace, func() {
		s.removeIfGen(phone, gen)
	})
	return nil
}

// Delete removes the entry for phone.
func (s *MemoryStore) Delete(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, phone)
	return nil
}

// Close stops the background sweeper. Entries already scheduled for
// grace-window removal are still removed by their timers.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	return nil
}

// Len returns the number of live entries. Used by the health endpoint.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// removeIfGen deletes the entry only if it is still the generation the
// removal was scheduled for.
func (s *MemoryStore) removeIfGen(phone string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if me, ok := s.entries[phone]; ok && me.gen == gen {
		delete(s.entries, phone)
	}
}

func (s *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep deletes every entry past its TTL. This bounds memory for
// abandoned flows; lookups already treat expired entries as invalid, so
// a missed cycle is harmless.
func (s *MemoryStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, me := range s.entries {
		if now.After(me.entry.ExpiresAt) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed
}
