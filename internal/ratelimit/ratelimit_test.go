package ratelimit

import (
	"context"
	"testing"
	"time"
)

func newTestLimiter(capacity int) (*Limiter, *time.Time) {
	store := NewMemStore()
	l := New(store, capacity, time.Minute)

	now := time.Date(2026, 8, 30, 12, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheckAndIncrementCapacity(t *testing.T) {
	l, _ := newTestLimiter(60)
	ctx := context.Background()

	// Exactly the first 60 calls are admitted.
	for i := 0; i < 60; i++ {
		allowed, err := l.CheckAndIncrement(ctx, 1)
		if err != nil {
			t.Fatalf("call %d failed: %v", i+1, err)
		}
		if !allowed {
			t.Fatalf("call %d rejected, want admitted", i+1)
		}
	}

	allowed, err := l.CheckAndIncrement(ctx, 1)
	if err != nil {
		t.Fatalf("61st call failed: %v", err)
	}
	if allowed {
		t.Error("61st call admitted, want rejected")
	}
}

func TestWindowReset(t *testing.T) {
	l, now := newTestLimiter(2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if allowed, _ := l.CheckAndIncrement(ctx, 1); !allowed {
			t.Fatalf("call %d rejected", i+1)
		}
	}
	if allowed, _ := l.CheckAndIncrement(ctx, 1); allowed {
		t.Fatal("over-capacity call admitted")
	}

	// Next minute bucket admits again.
	*now = now.Add(time.Minute)
	if allowed, _ := l.CheckAndIncrement(ctx, 1); !allowed {
		t.Error("call in next window rejected, want admitted")
	}
}

func TestUsersDoNotCollide(t *testing.T) {
	l, _ := newTestLimiter(1)
	ctx := context.Background()

	if allowed, _ := l.CheckAndIncrement(ctx, 1); !allowed {
		t.Fatal("first user rejected")
	}
	if allowed, _ := l.CheckAndIncrement(ctx, 2); !allowed {
		t.Error("second user rejected, windows must be per user")
	}
	if allowed, _ := l.CheckAndIncrement(ctx, 1); allowed {
		t.Error("first user admitted past capacity")
	}
}

// Rejection must not consume capacity: a rejected call leaves the counter
// untouched.
func TestRejectWithoutIncrement(t *testing.T) {
	store := NewMemStore()
	l := New(store, 1, time.Minute)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	if allowed, _ := l.CheckAndIncrement(ctx, 1); !allowed {
		t.Fatal("first call rejected")
	}
	for i := 0; i < 5; i++ {
		if allowed, _ := l.CheckAndIncrement(ctx, 1); allowed {
			t.Fatal("over-capacity call admitted")
		}
	}

	count, err := store.Get(ctx, l.windowKey(1))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if count != 1 {
		t.Errorf("counter = %d after rejections, want 1", count)
	}
}

func TestMemStoreExpiry(t *testing.T) {
	store := NewMemStore()
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Incr(ctx, "k", 10*time.Millisecond); err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	count, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expired counter = %d, want 0", count)
	}

	// A fresh increment after expiry restarts from 1.
	count, err = store.Incr(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Incr failed: %v", err)
	}
	if count != 1 {
		t.Errorf("counter after expiry = %d, want 1", count)
	}
}
