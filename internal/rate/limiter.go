package rate

import (
	"sync"
	"time"

	xrate "golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key, such as a client IP or payment id.
type KeyedLimiter struct {
	mu              sync.Mutex
	limit           xrate.Limit
	burst           int
	idleTTL         time.Duration
	items           map[string]*keyedEntry
	lastCleanup     time.Time
	cleanupInterval time.Duration
	now             func() time.Time
}

// keyedEntry represents one key's bucket.
type keyedEntry struct {
	limiter  *xrate.Limiter
	lastSeen time.Time
}

// NewPerMinute allows perMinute requests per key, refilled evenly over a minute.
func NewPerMinute(perMinute int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return NewKeyedLimiter(xrate.Every(time.Minute/time.Duration(perMinute)), perMinute, time.Minute)
}

// NewKeyedLimiter creates a limiter; keys idle for idleTTL are forgotten.
func NewKeyedLimiter(limit xrate.Limit, burst int, idleTTL time.Duration) *KeyedLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		limit:           limit,
		burst:           burst,
		idleTTL:         idleTTL,
		items:           make(map[string]*keyedEntry),
		lastCleanup:     time.Now(),
		cleanupInterval: idleTTL,
		now:             time.Now,
	}
}

// Allow reports whether one more event for key fits its bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeCleanup(now)

	entry, ok := l.items[key]
	if !ok {
		entry = &keyedEntry{limiter: xrate.NewLimiter(l.limit, l.burst)}
		l.items[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// maybeCleanup drops buckets that have been idle long enough to be full again.
func (l *KeyedLimiter) maybeCleanup(now time.Time) {
	if l.cleanupInterval <= 0 || l.idleTTL <= 0 {
		return
	}
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < l.cleanupInterval {
		return
	}
	for key, entry := range l.items {
		if now.Sub(entry.lastSeen) >= l.idleTTL {
			delete(l.items, key)
		}
	}
	l.lastCleanup = now
}

func (l *KeyedLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
