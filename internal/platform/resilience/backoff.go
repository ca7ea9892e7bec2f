package resilience

import (
	"context"
	"math"
	"time"
)

// Delay returns the wait before retry number attempt (zero based).
func (c BackoffConfig) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(c.Initial) * math.Pow(c.Multiplier, float64(attempt))
	if d > float64(c.Max) || math.IsInf(d, 0) {
		return c.Max
	}
	return time.Duration(d)
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
