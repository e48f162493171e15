// Package ratelimit provides per-source fixed-window request throttling with
// two interchangeable backends: an in-process map for single-instance
// deployments and Redis for a shared budget across replicas.
package ratelimit

import (
	"context"
	"time"
)

// DefaultWindow is the fixed window during which a source's request count is
// capped.
const DefaultWindow = 60 * time.Second

// Limit caps requests per source key within a fixed window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allow      bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a request from the given source key is allowed
// under the limit. Implementations are safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit) (Decision, error)
}
