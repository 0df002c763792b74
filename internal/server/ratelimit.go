package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/iwvelando/loan-simulator/internal/metrics"
	"go.uber.org/zap"
)

const (
	bucketIdleThreshold = 1 * time.Hour
	bucketSweepInterval = 30 * time.Minute
)

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter grants each client a fixed number of requests per window.
type RateLimiter struct {
	mu        sync.Mutex
	capacity  int
	window    time.Duration
	clients   map[string]*clientBucket
	now       func() time.Time
	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewRateLimiter creates a limiter and starts sweeping idle clients.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity:  capacity,
		window:    window,
		clients:   make(map[string]*clientBucket),
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (r *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopSweep:
			return
		}
	}
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for client, bucket := range r.clients {
		if now.Sub(bucket.lastRefill) > bucketIdleThreshold {
			delete(r.clients, client)
		}
	}
}

// Stop ends the idle-client sweep.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopSweep) })
}

// Allow consumes one token for the client, refilling the bucket once the
// window has elapsed.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	bucket, exists := r.clients[client]
	if !exists {
		r.clients[client] = &clientBucket{
			tokens:     r.capacity - 1,
			lastRefill: now,
		}
		return r.capacity > 0
	}

	if now.Sub(bucket.lastRefill) >= r.window {
		bucket.tokens = r.capacity
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (h *handler) rateLimit(next http.Handler) http.Handler {
	if h.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !h.limiter.Allow(ip) {
			metrics.RateLimited.Inc()
			h.logger.Warn("rate limit exceeded",
				zap.String("op", "server.rateLimit"),
				zap.String("client", ip),
				zap.String("path", r.URL.Path),
			)
			h.writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
