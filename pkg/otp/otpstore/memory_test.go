package otpstore_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/phonex/pkg/otp/otpstore"
)

const testPhone = "+998901234567"

func newTestStore(t *testing.T, grace time.Duration) *otpstore.MemoryStore {
	t.Helper()
	s := otpstore.NewMemoryStore(grace, 0)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10*time.Second)

	if err := s.Put(ctx, testPhone, "1234", 120*time.Second); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	entry, err := s.Get(ctx, testPhone)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry == nil {
		t.Fatal("expected entry, got nil")
	}
	if entry.Code != "1234" {
		t.Fatalf("expected code 1234, got %q", entry.Code)
	}
	if entry.Attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", entry.Attempts)
	}
	if entry.Verified {
		t.Fatal("fresh entry must not be verified")
	}
	if got := entry.ExpiresAt.Sub(entry.CreatedAt); got != 120*time.Second {
		t.Fatalf("expected ttl 120s, got %v", got)
	}
}

func TestMemoryStore_GetUnknownPhone(t *testing.T) {
	s := newTestStore(t, 10*time.Second)

	entry, err := s.Get(context.Background(), "+15550001111")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected nil entry, got %+v", entry)
	}
}

func TestMemoryStore_PutOverwritesPendingState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10*time.Second)

	if err := s.Put(ctx, testPhone, "1111", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.IncrementAttempts(ctx, testPhone); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}

	if err := s.Put(ctx, testPhone, "2222", time.Minute); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	entry, _ := s.Get(ctx, testPhone)
	if entry.Code != "2222" {
		t.Fatalf("expected new code, got %q", entry.Code)
	}
	if entry.Attempts != 0 {
		t.Fatalf("expected attempts reset to 0, got %d", entry.Attempts)
	}
	if entry.Verified {
		t.Fatal("overwritten entry must not be verified")
	}
}

func TestMemoryStore_IncrementAttempts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10*time.Second)

	if err := s.Put(ctx, testPhone, "1234", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	for want := 1; want <= 3; want++ {
		got, err := s.IncrementAttempts(ctx, testPhone)
		if err != nil {
			t.Fatalf("increment failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
}

func TestMemoryStore_IncrementAttemptsUnknownPhone(t *testing.T) {
	s := newTestStore(t, 10*time.Second)

	if _, err := s.IncrementAttempts(context.Background(), "+15550001111"); err == nil {
		t.Fatal("expected error for unknown phone")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10*time.Second)

	if err := s.Put(ctx, testPhone, "1234", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Delete(ctx, testPhone); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if entry, _ := s.Get(ctx, testPhone); entry != nil {
		t.Fatalf("expected nil after delete, got %+v", entry)
	}
}

func TestMemoryStore_MarkVerifiedGraceRemoval(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 50*time.Millisecond)

	if err := s.Put(ctx, testPhone, "1234", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.MarkVerified(ctx, testPhone); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	entry, _ := s.Get(ctx, testPhone)
	if entry == nil || !entry.Verified {
		t.Fatalf("expected verified entry inside grace window, got %+v", entry)
	}

	time.Sleep(150 * time.Millisecond)

	if entry, _ := s.Get(ctx, testPhone); entry != nil {
		t.Fatalf("expected removal after grace window, got %+v", entry)
	}
}

func TestMemoryStore_NewPutSurvivesStaleGraceTimer(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 50*time.Millisecond)

	if err := s.Put(ctx, testPhone, "1234", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.MarkVerified(ctx, testPhone); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	// A new send arrives before the grace timer fires. The stale timer
	// must not tear the fresh entry down.
	if err := s.Put(ctx, testPhone, "5678", time.Minute); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	entry, _ := s.Get(ctx, testPhone)
	if entry == nil {
		t.Fatal("fresh entry was removed by a stale grace timer")
	}
	if entry.Code != "5678" || entry.Verified {
		t.Fatalf("unexpected entry state: %+v", entry)
	}
}

func TestMemoryStore_SweepRemovesExpired(t *testing.T) {
	ctx := context.Background()
	s := otpstore.NewMemoryStore(10*time.Second, 20*time.Millisecond)
	defer s.Close()

	if err := s.Put(ctx, testPhone, "1234", 10*time.Millisecond); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put(ctx, "+15550002222", "5678", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	time.Sleep(120 * time.Millisecond)

	if entry, _ := s.Get(ctx, testPhone); entry != nil {
		t.Fatalf("expected expired entry swept, got %+v", entry)
	}
	if entry, _ := s.Get(ctx, "+15550002222"); entry == nil {
		t.Fatal("live entry must survive the sweep")
	}
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10*time.Second)

	if err := s.Put(ctx, testPhone, "1234", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := s.IncrementAttempts(ctx, testPhone); err != nil {
				t.Errorf("increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, _ := s.Get(ctx, testPhone)
	if entry.Attempts != workers {
		t.Fatalf("expected %d attempts, got %d", workers, entry.Attempts)
	}
}
