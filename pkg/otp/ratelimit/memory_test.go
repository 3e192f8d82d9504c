package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/phonex/pkg/otp/ratelimit"
)

const testPhone = "+998901234567"

func TestMemoryLimiter_AllowsFirstSend(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(60*time.Second, 0)
	defer l.Close()

	allowed, retryAfter, err := l.Check(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("first send must be allowed")
	}
	if retryAfter != 0 {
		t.Fatalf("expected no retry-after, got %d", retryAfter)
	}
}

func TestMemoryLimiter_CheckDoesNotCharge(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(60*time.Second, 0)
	defer l.Close()
	ctx := context.Background()

	// Only RecordSuccess arms the cooldown; checks alone never do, so a
	// failed send does not penalize the caller.
	for i := 0; i < 3; i++ {
		allowed, _, err := l.Check(ctx, testPhone)
		if err != nil {
			t.Fatalf("check failed: %v", err)
		}
		if !allowed {
			t.Fatalf("check %d was denied without any recorded send", i)
		}
	}
}

func TestMemoryLimiter_CooldownAfterSuccess(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(60*time.Second, 0)
	defer l.Close()
	ctx := context.Background()

	if err := l.RecordSuccess(ctx, testPhone); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	allowed, retryAfter, err := l.Check(ctx, testPhone)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if allowed {
		t.Fatal("send inside the cooldown must be rejected")
	}
	if retryAfter <= 0 || retryAfter > 60 {
		t.Fatalf("expected retry-after in (0, 60], got %d", retryAfter)
	}
}

func TestMemoryLimiter_AllowsAfterCooldown(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(50*time.Millisecond, 0)
	defer l.Close()
	ctx := context.Background()

	if err := l.RecordSuccess(ctx, testPhone); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	allowed, _, err := l.Check(ctx, testPhone)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("send after the cooldown must be allowed")
	}
}

func TestMemoryLimiter_OtherPhonesUnaffected(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(60*time.Second, 0)
	defer l.Close()
	ctx := context.Background()

	if err := l.RecordSuccess(ctx, testPhone); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	allowed, _, err := l.Check(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("cooldown for one phone must not block another")
	}
}

func TestMemoryLimiter_PruneKeepsLookupsNonBlocking(t *testing.T) {
	l := ratelimit.NewMemoryLimiter(30*time.Millisecond, 20*time.Millisecond)
	defer l.Close()
	ctx := context.Background()

	if err := l.RecordSuccess(ctx, testPhone); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	time.Sleep(120 * time.Millisecond)

	allowed, _, err := l.Check(ctx, testPhone)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !allowed {
		t.Fatal("pruned record must not block a send")
	}
}
