package http

import (
	"sync"
	"time"
)

const (
	rateWindow    = time.Minute
	sweepInterval = 2 * time.Minute
	// buckets idle for this long are dropped by the sweeper
	bucketMaxIdle = 5 * time.Minute
)

// rateLimiter caps mutation requests per client IP over a fixed
// one-minute window. GET traffic is never counted, so the map holds one
// bucket per writing client only. The per-minute cap comes from config.
type rateLimiter struct {
	mu       sync.Mutex
	perMin   int
	buckets  map[string]*rateBucket
	done     chan struct{}
	stopOnce sync.Once
}

type rateBucket struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMin:  perMinute,
		buckets: make(map[string]*rateBucket),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// allow counts a request against the client's current window and
// reports whether it stays within the cap.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b := rl.buckets[clientIP]
	if b == nil || now.Sub(b.windowStart) >= rateWindow {
		rl.buckets[clientIP] = &rateBucket{windowStart: now, count: 1}
		return true
	}
	b.count++
	return b.count <= rl.perMin
}

// sweep drops buckets whose window is long past, so the map does not
// grow with one entry per IP ever seen.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-bucketMaxIdle)
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if b.windowStart.Before(cutoff) {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
