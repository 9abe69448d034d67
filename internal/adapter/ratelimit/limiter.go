// Package ratelimit implements component D: dual-level sliding-window
// admission control, structured the way the teacher's RateLimiter is
// (mutex-guarded state, a Result struct rendered into X-RateLimit-*
// headers) but with an exact timestamp-purge sliding window instead of a
// token bucket — see DESIGN.md for why golang.org/x/time/rate doesn't fit.
package ratelimit

import (
	"sync"
	"time"

	"github.com/swhesong/deeplx-gateway/internal/core/ports"
)

const maxPerClientLimit = 30

// Limiter holds the global window and all per-client windows under one
// mutex, avoiding TOCTOU between the purge-then-check and the append (§4.D).
type Limiter struct {
	mu             sync.Mutex
	timeWindow     time.Duration
	globalLimit    int
	perClientLimit int
	global         []time.Time
	perClient      map[string][]time.Time
	now            func() time.Time
}

// NewLimiter builds a Limiter for maxRequestsPerMinute over timeWindow. The
// per-client cap is min(maxRequestsPerMinute/4, 30) per §4.D.
func NewLimiter(maxRequestsPerMinute int, timeWindow time.Duration) *Limiter {
	perClient := maxRequestsPerMinute / 4
	if perClient > maxPerClientLimit {
		perClient = maxPerClientLimit
	}
	return &Limiter{
		timeWindow:     timeWindow,
		globalLimit:    maxRequestsPerMinute,
		perClientLimit: perClient,
		perClient:      make(map[string][]time.Time),
		now:            time.Now,
	}
}

// Allow implements the admission order from §4.D: purge both windows,
// check global first, then per-client; on acceptance append the current
// timestamp to the global window and, when clientKey is non-empty, to that
// client's window. P4: the (N+1)th request in a window is accepted iff
// fewer than N timestamps remain after purging expired entries.
func (l *Limiter) Allow(clientKey string) ports.RateLimitResult {
	now := l.now()
	cutoff := now.Add(-l.timeWindow)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.global = purge(l.global, cutoff)

	if l.globalLimit <= 0 || len(l.global) >= l.globalLimit {
		return ports.RateLimitResult{
			Allowed:   false,
			Reason:    "Global rate limit exceeded",
			Limit:     l.globalLimit,
			Remaining: 0,
		}
	}

	if clientKey != "" {
		window := purge(l.perClient[clientKey], cutoff)
		l.perClient[clientKey] = window

		if l.perClientLimit <= 0 || len(window) >= l.perClientLimit {
			return ports.RateLimitResult{
				Allowed:   false,
				Reason:    "Client rate limit exceeded",
				Limit:     l.perClientLimit,
				Remaining: 0,
			}
		}
	}

	l.global = append(l.global, now)
	remaining := l.globalLimit - len(l.global)

	if clientKey != "" {
		l.perClient[clientKey] = append(l.perClient[clientKey], now)
		clientRemaining := l.perClientLimit - len(l.perClient[clientKey])
		if clientRemaining < remaining {
			remaining = clientRemaining
		}
	}

	return ports.RateLimitResult{
		Allowed:   true,
		Limit:     l.globalLimit,
		Remaining: remaining,
	}
}

func purge(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && timestamps[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return timestamps
	}
	return append([]time.Time(nil), timestamps[i:]...)
}
