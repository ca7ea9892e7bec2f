package resilience

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a process-wide token bucket with a burst of one, so
// consecutive acquisitions are spaced by at least Interval.
type RateLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter admits perMinute acquisitions per minute. perMinute <= 0
// disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	interval := time.Minute / time.Duration(perMinute)
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}
