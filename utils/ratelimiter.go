package utils

import (
	"math/rand"
	"sync"
	"time"
)

// RateLimiter spaces outgoing requests so workers never hammer the site in
// lockstep. A small random jitter is added on top of the base delay, since
// perfectly periodic requests are an easy bot signature.
type RateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	delay    time.Duration
}

// NewRateLimiter creates a RateLimiter with the given base delay in milliseconds
func NewRateLimiter(delayMs int) *RateLimiter {
	return &RateLimiter{
		delay: time.Duration(delayMs) * time.Millisecond,
	}
}

// Wait blocks until enough time has passed since the last request, shared
// across all workers
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	wait := r.delay + time.Duration(rand.Int63n(int64(r.delay)/4+1))
	elapsed := time.Since(r.lastCall)
	if elapsed < wait {
		time.Sleep(wait - elapsed)
	}
	r.lastCall = time.Now()
}
