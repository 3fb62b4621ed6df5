package authsvc

import (
	"context"
	"sync"
	"time"
)

// RateLimiter counts failed login attempts per key within a fixed window.
type RateLimiter interface {
	// IsBlocked reports whether key has reached the failure threshold in the current window.
	IsBlocked(ctx context.Context, key string) (bool, error)
	// RecordFailure counts one failed attempt for key and returns the count in the current window.
	// The first failure opens the window.
	RecordFailure(ctx context.Context, key string) (int, error)
	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// RateLimiterConfig holds the failed-login policy.
type RateLimiterConfig struct {
	// Threshold is the number of failures after which further attempts are blocked
	Threshold int `env:"THRESHOLD" default:"5"`
	// Window is the lifetime of a counter, measured from its first failure; 0 keeps
	// counters until a successful login resets them
	Window time.Duration `env:"WINDOW" default:"15m"`
}

type attemptState struct {
	count       int
	windowStart time.Time
}

// MemoryRateLimiter implements RateLimiter in process memory.
type MemoryRateLimiter struct {
	cfg RateLimiterConfig
	now func() time.Time

	mu       sync.Mutex
	attempts map[string]*attemptState
}

var _ RateLimiter = (*MemoryRateLimiter)(nil)

// NewMemoryRateLimiter creates a MemoryRateLimiter. A nil now uses time.Now.
func NewMemoryRateLimiter(cfg RateLimiterConfig, now func() time.Time) *MemoryRateLimiter {
	if now == nil {
		now = time.Now
	}

	return &MemoryRateLimiter{
		cfg:      cfg,
		now:      now,
		attempts: make(map[string]*attemptState),
	}
}

// live returns the state for key if its window is still open. Callers hold mu.
func (l *MemoryRateLimiter) live(key string, now time.Time) (*attemptState, bool) {
	state, ok := l.attempts[key]
	if !ok {
		return nil, false
	}

	if l.expired(state, now) {
		delete(l.attempts, key)

		return nil, false
	}

	return state, true
}

func (l *MemoryRateLimiter) expired(state *attemptState, now time.Time) bool {
	return l.cfg.Window > 0 && !now.Before(state.windowStart.Add(l.cfg.Window))
}

// IsBlocked implements RateLimiter.IsBlocked.
func (l *MemoryRateLimiter) IsBlocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.live(key, l.now())

	return ok && state.count >= l.cfg.Threshold, nil
}

// RecordFailure implements RateLimiter.RecordFailure.
func (l *MemoryRateLimiter) RecordFailure(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	state, ok := l.live(key, now)
	if !ok {
		state = &attemptState{windowStart: now}
		l.attempts[key] = state
	}

	state.count++

	return state.count, nil
}

// Reset implements RateLimiter.Reset.
func (l *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, key)

	return nil
}

// Prune drops counters whose window has closed and returns how many were dropped.
func (l *MemoryRateLimiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int

	for key, state := range l.attempts {
		if l.expired(state, now) {
			delete(l.attempts, key)
			n++
		}
	}

	return n
}
