package rate

import (
	"testing"
	"time"
)

func TestKeyedLimiterBurstPerKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewPerMinute(3)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("fourth request within the minute should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("other keys must have their own bucket")
	}

	now = now.Add(20 * time.Second)
	if !l.Allow("10.0.0.1") {
		t.Fatalf("one token should refill after 20s")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("only one token should have refilled")
	}
}

func TestKeyedLimiterForgetsIdleKeys(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewPerMinute(1)
	l.now = func() time.Time { return now }
	l.lastCleanup = now

	l.Allow("a")
	l.Allow("b")
	if got := l.size(); got != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	l.Allow("c")
	if got := l.size(); got != 1 {
		t.Fatalf("expected idle keys to be dropped, got %d", got)
	}
}

func TestNilKeyedLimiterAllows(t *testing.T) {
	var l *KeyedLimiter
	if !l.Allow("any") {
		t.Fatalf("nil limiter should allow")
	}
}
