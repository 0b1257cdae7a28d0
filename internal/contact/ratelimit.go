package contact

import (
	"sync"
	"time"
)

// Default contact form limits.
const (
	DefaultWindow      = 15 * time.Minute
	DefaultMaxAttempts = 3
)

// RateLimiter counts submissions per client IP in a sliding window. Its state
// lives only in memory and is lost on restart.
type RateLimiter struct {
	window time.Duration
	max    int

	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewRateLimiter allows limit attempts per ip within window.
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		window:   window,
		max:      limit,
		attempts: make(map[string][]time.Time),
	}
}

// Window returns the sliding window length.
func (l *RateLimiter) Window() time.Duration { return l.window }

// MaxAttempts returns the per-window limit.
func (l *RateLimiter) MaxAttempts() int { return l.max }

// Allow records an attempt from ip at now. When the limit is already reached
// the attempt is not recorded and retryAfter reports when the oldest attempt
// leaves the window.
func (l *RateLimiter) Allow(ip string, now time.Time) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)

	recent := l.attempts[ip]
	if len(recent) >= l.max {
		return false, recent[0].Add(l.window).Sub(now)
	}
	l.attempts[ip] = append(recent, now)
	return true, 0
}

// Prune forgets attempts older than the window and reports how many IPs
// were dropped entirely.
func (l *RateLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pruneLocked(now)
}

func (l *RateLimiter) pruneLocked(now time.Time) int {
	dropped := 0
	for ip, times := range l.attempts {
		keep := times[:0]
		for _, t := range times {
			if now.Sub(t) < l.window {
				keep = append(keep, t)
			}
		}
		if len(keep) == 0 {
			delete(l.attempts, ip)
			dropped++
			continue
		}
		l.attempts[ip] = keep
	}
	return dropped
}
