package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(time.Minute)
	defer limiter.Close()

	limit := Limit{Max: 10, Window: time.Minute}

	for i := 0; i < 10; i++ {
		dec, err := limiter.Allow(ctx, "ip:1.2.3.4", limit)
		if err != nil {
			t.Fatalf("unexpected error on request %d: %v", i, err)
		}
		if !dec.Allow {
			t.Fatalf("request %d was unexpectedly denied", i)
		}
	}

	dec, _ := limiter.Allow(ctx, "ip:1.2.3.4", limit)
	if dec.Allow {
		t.Error("11th request within the window should have been denied")
	}
	if dec.RetryAfter <= 0 {
		t.Errorf("denied decision should carry a positive RetryAfter, got %v", dec.RetryAfter)
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(time.Minute)
	defer limiter.Close()

	limit := Limit{Max: 1, Window: time.Minute}

	limiter.Allow(ctx, "ip:1.1.1.1", limit)
	dec, _ := limiter.Allow(ctx, "ip:2.2.2.2", limit)
	if !dec.Allow {
		t.Error("a different source key should not share the exhausted window")
	}
}

func TestMemoryLimiter_WindowReset(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(time.Minute)
	defer limiter.Close()

	limit := Limit{Max: 1, Window: 50 * time.Millisecond}

	limiter.Allow(ctx, "ip:1.2.3.4", limit)
	dec, _ := limiter.Allow(ctx, "ip:1.2.3.4", limit)
	if dec.Allow {
		t.Fatal("second request inside the window should be denied")
	}

	time.Sleep(80 * time.Millisecond)

	dec, _ = limiter.Allow(ctx, "ip:1.2.3.4", limit)
	if !dec.Allow {
		t.Error("request after the window reset should be allowed regardless of prior count")
	}
}

func TestMemoryLimiter_SweepRemovesExpiredWindows(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(20 * time.Millisecond)
	defer limiter.Close()

	limit := Limit{Max: 5, Window: 10 * time.Millisecond}
	for i := 0; i < 50; i++ {
		limiter.Allow(ctx, fmt.Sprintf("ip:10.0.0.%d", i), limit)
	}

	time.Sleep(80 * time.Millisecond)

	limiter.mu.Lock()
	remaining := len(limiter.windows)
	limiter.mu.Unlock()
	if remaining != 0 {
		t.Errorf("expected expired windows to be swept, %d remain", remaining)
	}
}

func TestMemoryLimiter_ThreadSafety(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(time.Minute)
	defer limiter.Close()

	limit := Limit{Max: 100, Window: time.Minute}

	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		go func() {
			defer wg.Done()
			limiter.Allow(ctx, "ip:1.2.3.4", limit)
		}()
	}
	wg.Wait()

	dec, _ := limiter.Allow(ctx, "ip:1.2.3.4", limit)
	if dec.Allow {
		t.Error("expected window to be exhausted after 100 concurrent requests")
	}
}
