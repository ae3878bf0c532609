package util

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces file reads during ingestion. A nil *Limiter never blocks.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter returns a token bucket refilling r tokens per second and holding
// at most b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), b)}
}

// NewFileLimiter returns a limiter admitting perSecond files per second with a
// burst of one second's worth, or nil when perSecond is not positive.
func NewFileLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(math.Ceil(perSecond))
	return NewLimiter(perSecond, burst)
}

func (l *Limiter) Allow(n int) bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil {
		return ctx.Err()
	}
	return l.inner.WaitN(ctx, n)
}
