package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a per-key token bucket. Each key starts full with capacity
// tokens and regains refillTokens every refillEvery.
type Limiter struct {
	mu       sync.Mutex
	m        map[string]*rate.Limiter
	limit    rate.Limit
	capacity int
	now      func() time.Time
}

func New(capacity int, refillEvery time.Duration, refillTokens int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	limit := rate.Inf
	if refillEvery > 0 && refillTokens > 0 {
		limit = rate.Every(refillEvery / time.Duration(refillTokens))
	}
	return &Limiter{m: make(map[string]*rate.Limiter), limit: limit, capacity: capacity, now: time.Now}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.m[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.capacity)
		l.m[key] = b
	}
	l.mu.Unlock()
	return b.AllowN(l.now(), 1)
}
