package otpstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Abraxas-365/phonex/pkg/otp"
)

// RedisStore implements otp.Store on a Redis hash per phone. It exists
// for multi-instance deployments where the in-memory map cannot be
// shared; HINCRBY keeps the attempts counter atomic across instances
// and key TTLs implement both the entry TTL and the verified-grace
// window, so no sweeper is needed.
type RedisStore struct {
	rdb   *redis.Client
	grace time.Duration
}

// NewRedisStore creates a Redis-backed entry store. The client is owned
// by the caller and is not closed by Close.
func NewRedisStore(rdb *redis.Client, grace time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, grace: grace}
}

func entryKey(phone string) string { return fmt.Sprintf("phonex:otp:%s", phone) }

// Put creates or overwrites the entry for phone. The fresh key TTL also
// cancels any pending grace-window expiry from a previous entry.
func (s *RedisStore) Put(ctx context.Context, phone, code string, ttl time.Duration) error {
	now := time.Now()
	key := entryKey(phone)

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"code", code,
		"attempts", 0,
		"verified", 0,
		"created_at", now.UnixMilli(),
		"expires_at", now.Add(ttl).UnixMilli(),
	)
	pipe.PExpire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "put")
	}
	return nil
}

// Get returns the entry for phone, or nil when none exists.
func (s *RedisStore) Get(ctx context.Context, phone string) (*otp.Entry, error) {
	fields, err := s.rdb.HGetAll(ctx, entryKey(phone)).Result()
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "get")
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeEntry(phone, fields)
}

// IncrementAttempts bumps the counter server-side and returns the new
// count. HINCRBY is atomic, so concurrent wrong submissions from
// different instances cannot both observe a pre-cap count.
func (s *RedisStore) IncrementAttempts(ctx context.Context, phone string) (int, error) {
	key := entryKey(phone)

	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return 0, storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "increment")
	}
	if exists == 0 {
		return 0, storeErrors.New(ErrEntryMissing).WithDetail("phone", phone)
	}

	n, err := s.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return 0, storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "increment")
	}
	return int(n), nil
}

// MarkVerified flips the flag and shortens the key TTL to the grace
// window; Redis expiry performs the delayed removal.
func (s *RedisStore) MarkVerified(ctx context.Context, phone string) error {
	key := entryKey(phone)

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, "verified", 1)
	pipe.PExpire(ctx, key, s.grace)
	if _, err := pipe.Exec(ctx); err != nil {
		return storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "mark_verified")
	}
	return nil
}

// Delete removes the entry for phone.
func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := s.rdb.Del(ctx, entryKey(phone)).Err(); err != nil {
		return storeErrors.NewWithCause(ErrBackend, err).WithDetail("op", "delete")
	}
	return nil
}

// Close is a no-op; expiry is handled by Redis and the client belongs
// to the container.
func (s *RedisStore) Close() error { return nil }

func decodeEntry(phone string, fields map[string]string) (*otp.Entry, error) {
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrDecode, err).WithDetail("field", "attempts")
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrDecode, err).WithDetail("field", "created_at")
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, storeErrors.NewWithCause(ErrDecode, err).WithDetail("field", "expires_at")
	}

	return &otp.Entry{
		Phone:     phone,
		Code:      fields["code"],
		Attempts:  attempts,
		Verified:  fields["verified"] == "1",
		CreatedAt: time.UnixMilli(createdAt),
		ExpiresAt: time.UnixMilli(expiresAt),
	}, nil
}
