package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/phonex/pkg/errx"
)

var limiterErrors = errx.NewRegistry("RATELIMIT")

var errBackend = limiterErrors.Register("BACKEND", errx.TypeInternal, http.StatusInternalServerError, "Rate limiter backend failure")

// RedisLimiter shares the cooldown window across instances through a
// key with a TTL equal to the cooldown. The remaining TTL is the
// retry-after hint; expiry is Redis-side, so there is nothing to prune.
type RedisLimiter struct {
	rdb      *redis.Client
	cooldown time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter. The client is owned
// by the caller.
func NewRedisLimiter(rdb *redis.Client, cooldown time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, cooldown: cooldown}
}

func cooldownKey(phone string) string { return fmt.Sprintf("phonex:cooldown:%s", phone) }

// Check reports whether a send is allowed now.
func (l *RedisLimiter) Check(ctx context.Context, phone string) (bool, int, error) {
	ttl, err := l.rdb.PTTL(ctx, cooldownKey(phone)).Result()
	if err != nil {
		return false, 0, limiterErrors.NewWithCause(errBackend, err).WithDetail("op", "check")
	}
	// PTTL reports a negative duration for missing keys or keys
	// without expiry; neither blocks a send.
	if ttl <= 0 {
		return true, 0, nil
	}
	return false, int(math.Ceil(ttl.Seconds())), nil
}

// RecordSuccess arms the cooldown for phone.
func (l *RedisLimiter) RecordSuccess(ctx context.Context, phone string) error {
	if err := l.rdb.Set(ctx, cooldownKey(phone), 1, l.cooldown).Err(); err != nil {
		return limiterErrors.NewWithCause(errBackend, err).WithDetail("op", "record")
	}
	return nil
}

// Close is a no-op; the client belongs to the container.
func (l *RedisLimiter) Close() error { return nil }
