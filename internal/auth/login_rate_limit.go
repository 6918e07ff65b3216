package auth

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"forkful/internal/clock"
	"forkful/internal/observability"
)

const maxTrackedClients = 5000

// LoginRateLimiter is a per-client sliding window over login requests. State is process local.
type LoginRateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clock   clock.Clock
	history map[string][]time.Time
}

func NewLoginRateLimiter(limit int, window time.Duration, clk clock.Clock) *LoginRateLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}

	return &LoginRateLimiter{
		limit:   limit,
		window:  window,
		clock:   clk,
		history: make(map[string][]time.Time),
	}
}

func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, retryAfter := l.Allow(observability.ClientIP(r))
		if !allowed {
			incrementLoginAttempts("rate_limited")
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			writeError(w, http.StatusTooManyRequests, "too many login attempts")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Allow records a hit for key and reports whether it fits in the window. When it does not,
// the second result is how long until the oldest hit leaves the window (at least one second).
func (l *LoginRateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.clock.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	recent := pruneBefore(l.history[key], cutoff)
	if len(recent) >= l.limit {
		l.history[key] = recent
		wait := recent[0].Add(l.window).Sub(now)
		if wait < time.Second {
			wait = time.Second
		}
		return false, wait
	}

	l.history[key] = append(recent, now)
	if len(l.history) > maxTrackedClients {
		l.evictIdle(cutoff)
	}

	return true, 0
}

func (l *LoginRateLimiter) evictIdle(cutoff time.Time) {
	for key, hits := range l.history {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.history, key)
		}
	}
}

func pruneBefore(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, hit := range hits {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}
	return kept
}
