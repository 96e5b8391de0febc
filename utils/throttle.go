package utils

import (
	"context"
	"time"
)

// Throttle enforces a minimum interval between consecutive requests.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a Throttle; rateLimitMs <= 0 disables it.
func NewThrottle(rateLimitMs int) *Throttle {
	return &Throttle{interval: time.Duration(rateLimitMs) * time.Millisecond}
}

// Wait blocks until the interval since the previous Wait has elapsed. The
// first call never blocks. A done ctx is reported even when nothing waits.
func (t *Throttle) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.interval > 0 && !t.last.IsZero() {
		if d := t.interval - time.Since(t.last); d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = time.Now()
	return nil
}
