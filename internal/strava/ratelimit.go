package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Strava enforces two request quotas: 100 requests per rolling 15 minutes
// and 1000 per day. Both are reported back on every response via
// X-RateLimit headers, so the limiter trusts those over its own counting
// once it has seen them.

type usageWindow struct {
	limit   int
	used    int
	span    time.Duration
	resetAt time.Time
}

func (w *usageWindow) roll(now time.Time) {
	if now.Before(w.resetAt) {
		return
	}
	w.used = 0
	for !now.Before(w.resetAt) {
		w.resetAt = w.resetAt.Add(w.span)
	}
}

func (w *usageWindow) full() bool { return w.used >= w.limit }

// RateLimiter paces outgoing Strava API requests.
type RateLimiter struct {
	mu       sync.Mutex
	short    usageWindow
	daily    usageWindow
	minGap   time.Duration
	lastSent time.Time
	now      func() time.Time
}

// NewRateLimiter creates a limiter preloaded with Strava's documented quotas.
func NewRateLimiter() *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		short: usageWindow{
			limit:   100,
			span:    15 * time.Minute,
			resetAt: now.Truncate(15 * time.Minute).Add(15 * time.Minute),
		},
		daily: usageWindow{
			limit:   1000,
			span:    24 * time.Hour,
			resetAt: now.Truncate(24 * time.Hour).Add(24 * time.Hour),
		},
		minGap: 150 * time.Millisecond,
		now:    time.Now,
	}
}

// Wait blocks until a request can be sent without exceeding a quota, then
// reserves a slot for it.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := r.now()
		r.short.roll(now)
		r.daily.roll(now)

		var wait time.Duration
		switch {
		case r.short.full():
			wait = r.short.resetAt.Sub(now)
		case r.daily.full():
			wait = r.daily.resetAt.Sub(now)
		case now.Sub(r.lastSent) < r.minGap:
			wait = r.minGap - now.Sub(r.lastSent)
		}

		if wait <= 0 {
			r.short.used++
			r.daily.used++
			r.lastSent = now
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Observe syncs limiter state from response headers, e.g.
// "X-RateLimit-Limit: 100,1000" and "X-RateLimit-Usage: 34,512".
func (r *RateLimiter) Observe(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit = short
		r.daily.limit = daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.used = short
		r.daily.used = daily
	}
}

// Remaining reports how many requests are left in each window.
func (r *RateLimiter) Remaining() (short, daily int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.used, r.daily.limit - r.daily.used
}

func parsePair(s string) (int, int, bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}
