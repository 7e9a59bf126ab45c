package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter keeps a token-bucket limiter per client IP.
type rateLimiter struct {
	mu           sync.Mutex
	rps          rate.Limit
	burst        int
	visitors     map[string]*visitor
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(rps, burst int) *rateLimiter {
	rl := &rateLimiter{
		rps:         rate.Limit(rps),
		burst:       burst,
		visitors:    make(map[string]*visitor),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

// allow reports whether a request from the given IP is within its budget.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[clientIP]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[clientIP] = v
	}
	v.lastSeen = time.Now()

	return v.limiter.Allow()
}

// startCleanup runs periodic cleanup to remove stale client entries.
func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries idle for more than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// stop gracefully shuts down the rate limiter cleanup goroutine.
func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}
