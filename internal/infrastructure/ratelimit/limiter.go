package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerKey enforces an independent token-bucket limit for each key
// (e.g. the recipient address of a reset email).
type PerKey struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewPerKey(limit rate.Limit, burst int) *PerKey {
	return &PerKey{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	limiter, ok := p.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = limiter
	}
	p.mu.Unlock()

	return limiter.Allow()
}
