package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "c:1", 3, now)
		if err != nil {
			t.Fatalf("Allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("expected allowed on attempt %d", i)
		}
		if res.Remaining != 3-i-1 {
			t.Fatalf("attempt %d: expected remaining=%d, got %d", i, 3-i-1, res.Remaining)
		}
	}

	res, err := l.Allow(ctx, "c:1", 3, now)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("expected denial once the window is full")
	}

	// A new second opens a new window.
	res, err = l.Allow(ctx, "c:1", 3, now.Add(time.Second))
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !res.Allowed {
		t.Fatal("expected allowed in the next window")
	}
}

func TestMemoryLimiterIndependentKeys(t *testing.T) {
	l := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Now()

	if res, _ := l.Allow(ctx, "c:1", 1, now); !res.Allowed {
		t.Fatal("expected allowed for c:1")
	}
	if res, _ := l.Allow(ctx, "c:2", 1, now); !res.Allowed {
		t.Fatal("expected allowed for c:2 despite c:1 exhaustion")
	}
	if res, _ := l.Allow(ctx, "c:1", 1, now); res.Allowed {
		t.Fatal("expected denial for exhausted c:1")
	}
}

func TestMemoryLimiterZeroLimitUnlimited(t *testing.T) {
	l := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		res, err := l.Allow(context.Background(), "c:1", 0, time.Now())
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !res.Allowed {
			t.Fatal("zero limit must mean unlimited")
		}
	}
}

func TestManagerFallsBackToMemory(t *testing.T) {
	provider := func() SettingsConfig {
		return SettingsConfig{Limit: 2, RedisEnabled: false}
	}
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	m := NewManager(provider, func() time.Time { return fixed }, nil)
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 3; i++ {
		res, err := m.Allow(ctx, KeyForChat(99))
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if res.Allowed {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("expected 2 allowed within one second, got %d", allowed)
	}
}

func TestKeyForChat(t *testing.T) {
	if got := KeyForChat(12345); got != "c:12345" {
		t.Fatalf("KeyForChat: got %q", got)
	}
	if got := KeyForChat(0); got != "" {
		t.Fatalf("KeyForChat(0): got %q", got)
	}
}
