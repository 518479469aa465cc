package api

import (
	"math"
	"time"
)

// RetryStrategy returns the delay before retry attempt n (starting at 0).
type RetryStrategy interface {
	SleepDuration(attempt int, err error) time.Duration
}

// NoDelay retries immediately.
type NoDelay struct{}

func (NoDelay) SleepDuration(int, error) time.Duration { return 0 }

// ExponentialBackoff grows Base by Factor per attempt, capped at Max.
type ExponentialBackoff struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration
}

// DefaultBackoff is used for GET retries unless overridden.
var DefaultBackoff = ExponentialBackoff{Base: 200 * time.Millisecond, Factor: 2, Max: 3 * time.Second}

func (e ExponentialBackoff) SleepDuration(attempt int, _ error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := e.Factor
	if factor <= 0 {
		factor = 1
	}
	delay := time.Duration(float64(e.Base) * math.Pow(factor, float64(attempt)))
	if e.Max > 0 && delay > e.Max {
		return e.Max
	}
	return delay
}
