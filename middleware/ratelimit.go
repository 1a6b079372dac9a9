package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gomarten/spur"
)

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(*spur.Ctx) string
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests: 100,
		Window:   time.Minute,
		KeyFunc:  func(c *spur.Ctx) string { return c.ClientIP() },
	}
}

// RateLimit returns an action allowing Requests per Window for each key.
// Rejected requests get a 429 with Retry-After.
func RateLimit(cfg RateLimitConfig) spur.Action {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *spur.Ctx) string { return c.ClientIP() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	l := &limiter{cfg: cfg, clients: make(map[string]*bucket), now: time.Now}

	return spur.Check(func(c *spur.Ctx) *spur.Response {
		remaining, reset, ok := l.take(cfg.KeyFunc(c))
		h := c.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if ok {
			return nil
		}
		res := c.JSON(http.StatusTooManyRequests, spur.E("rate limit exceeded"))
		secs := int(reset.Seconds() + 0.999)
		res.Header.Set("Retry-After", strconv.Itoa(max(secs, 1)))
		return res
	})
}

type limiter struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	reset     time.Time
	remaining int
}

// take consumes one request for key. It returns the requests left and the
// time until the window resets.
func (l *limiter) take(key string) (int, time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.cfg.Window {
		for k, b := range l.clients {
			if now.Sub(b.reset) > l.cfg.Window {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.clients[key]
	if !ok || now.After(b.reset) {
		b = &bucket{reset: now.Add(l.cfg.Window), remaining: l.cfg.Requests}
		l.clients[key] = b
	}
	if b.remaining <= 0 {
		return 0, b.reset.Sub(now), false
	}
	b.remaining--
	return b.remaining, b.reset.Sub(now), true
}
