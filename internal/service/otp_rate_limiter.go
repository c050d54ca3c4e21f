package service

import (
	"context"
	"sync"
	"time"
)

// OTPRateLimiter limita cuantos codigos se pueden pedir por email en una ventana.
type OTPRateLimiter interface {
	Allow(ctx context.Context, key string) bool
}

type memoryOTPRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewOTPRateLimiter crea un limitador de ventana deslizante en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryOTPRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryOTPRateLimiter) Allow(_ context.Context, key string) bool {
	key = normalizeEmail(key)
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, ts := range l.hits[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}
