package request

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter interface groups rate limit functionality so that exchanges with
// extended requirements can supply their own implementation.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Backoff returns the delay to wait before retry attempt n
type Backoff func(n int) time.Duration

// DefaultBackoff is a doubling backoff starting at 100ms, capped at 2s
func DefaultBackoff() Backoff {
	return func(n int) time.Duration {
		d := 100 * time.Millisecond << uint(n-1)
		if d > 2*time.Second {
			d = 2 * time.Second
		}
		return d
	}
}

// NewRateLimit creates a new rate limiter based on a time interval and how
// many actions are allowed within it, broken down to an actions-per-second
// basis. Burst rate is kept at one as bursting is not supported for
// out-bound requests.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		// Returns an unrestricted rate limiter
		return rate.NewLimiter(rate.Inf, 1)
	}

	i := 1 / interval.Seconds()
	rps := i * float64(actions)
	return rate.NewLimiter(rate.Limit(rps), 1)
}
