package stats

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("k") {
		t.Fatalf("expected first hit to be allowed")
	}
	if rl.allow("k") {
		t.Fatalf("expected second hit inside the window to be blocked")
	}
	if !rl.allow("other") {
		t.Fatalf("expected keys to be independent")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("k") {
		t.Fatalf("expected hit after the window to be allowed")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Millisecond)
	rl.stop()
	rl.stop()
}
