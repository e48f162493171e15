package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is an in-process fixed-window limiter. Its state is local to
// the process, so under N replicas the effective limit is N times the
// configured max; use RedisLimiter when a global budget is required.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	done    chan struct{}
	once    sync.Once
}

// NewMemoryLimiter constructs a MemoryLimiter and starts a background sweep
// that drops expired windows every sweepInterval to bound memory.
func NewMemoryLimiter(sweepInterval time.Duration) *MemoryLimiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultWindow
	}
	m := &MemoryLimiter{
		windows: make(map[string]*window),
		done:    make(chan struct{}),
	}
	go m.sweep(sweepInterval)
	return m
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string, limit Limit) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, exists := m.windows[key]
	if !exists || now.After(w.resetAt) {
		w = &window{count: 0, resetAt: now.Add(limit.Window)}
		m.windows[key] = w
	}

	if w.count >= limit.Max {
		return Decision{
			Allow:      false,
			Remaining:  0,
			RetryAfter: w.resetAt.Sub(now),
		}, nil
	}

	w.count++
	return Decision{
		Allow:     true,
		Remaining: limit.Max - w.count,
	}, nil
}

func (m *MemoryLimiter) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, w := range m.windows {
				if now.After(w.resetAt) {
					delete(m.windows, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

// Close stops the background sweep.
func (m *MemoryLimiter) Close() {
	m.once.Do(func() { close(m.done) })
}
