package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, time.Hour)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected first two requests allowed")
	}
	if rl.Allow("a") {
		t.Fatal("expected third request limited")
	}
	if !rl.Allow("b") {
		t.Fatal("expected other clients unaffected")
	}
	if got := rl.RetryAfter("a"); got != 3601 {
		t.Fatalf("expected retry after 3601s, got %d", got)
	}

	now = now.Add(time.Hour)
	if !rl.Allow("a") {
		t.Fatal("expected allowance restored after the window")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:5555"
	if got := clientIP(r); got != "10.0.0.7" {
		t.Fatalf("expected 10.0.0.7, got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientIP(r); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}
