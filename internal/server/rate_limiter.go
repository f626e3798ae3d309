package server

import (
	"sync"
	"time"
)

// rateLimiter is a fixed-window counter keyed by an arbitrary string,
// usually a client address. Windows are pruned lazily on access.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	seen   map[string]*rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		seen:   make(map[string]*rateWindow),
	}
}

func (l *rateLimiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.prune(now)

	entry, ok := l.seen[key]
	if !ok || now.Sub(entry.start) >= l.window {
		l.seen[key] = &rateWindow{start: now, count: 1}
		return true
	}
	if entry.count >= l.limit {
		return false
	}
	entry.count++
	return true
}

func (l *rateLimiter) prune(now time.Time) {
	for key, entry := range l.seen {
		if now.Sub(entry.start) >= l.window {
			delete(l.seen, key)
		}
	}
}
