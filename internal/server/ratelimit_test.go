package server

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)
	defer limiter.Stop()

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("fourth request within the window should be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("other clients keep their own budget")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("10.0.0.1") {
		t.Fatal("budget should refill after the window")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Stop()

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	limiter.Allow("10.0.0.1")

	now = now.Add(2 * time.Hour)
	limiter.Allow("10.0.0.2")
	limiter.sweep()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.clients["10.0.0.1"]; ok {
		t.Fatal("idle client should be swept")
	}
	if _, ok := limiter.clients["10.0.0.2"]; !ok {
		t.Fatal("active client should be kept")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Stop()
	limiter.Stop()
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Fatalf("clientIP() = %s, expected 192.0.2.10", got)
	}

	req.RemoteAddr = "192.0.2.10"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Fatalf("clientIP() without port = %s", got)
	}
}
