package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/recognition-wall/pkg/util/errorutil"
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// WriteLimiter throttles mutating requests per authenticated user with a
// token bucket each.
type WriteLimiter struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rps       float64
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewWriteLimiter builds a pool. Non-positive values fall back to 5 rps and
// a burst of 10.
func NewWriteLimiter(rps float64, burst int) *WriteLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &WriteLimiter{
		m:     make(map[string]*limiterEntry),
		rps:   rps,
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

func (p *WriteLimiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) > p.ttl {
		cutoff := now.Add(-p.ttl)
		for k, e := range p.m {
			if e.lastSeen.Before(cutoff) {
				delete(p.m, k)
			}
		}
		p.lastSweep = now
	}

	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

// Allow reports whether key may perform another write now.
func (p *WriteLimiter) Allow(key string) bool {
	return p.get(key).Allow()
}

// Handle rejects mutating requests over the caller's budget. Reads pass.
func (p *WriteLimiter) Handle(c *fiber.Ctx) error {
	switch c.Method() {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return c.Next()
	}
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return c.Next()
	}
	if !p.Allow(principal.UserID()) {
		return apperrors.NewTooManyRequests("write rate limit exceeded")
	}
	return c.Next()
}
