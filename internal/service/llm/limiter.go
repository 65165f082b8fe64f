package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Limiter is the combined ceiling on backend calls shared by expansions,
// identification and card generation.
type Limiter struct {
	sem  *semaphore.Weighted
	rate *rate.Limiter
}

// NewLimiter allows maxConcurrent calls in flight and perSecond call starts
// per second. Zero or negative values disable that dimension.
func NewLimiter(maxConcurrent int, perSecond float64) *Limiter {
	l := &Limiter{}
	if maxConcurrent > 0 {
		l.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	if perSecond > 0 {
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		l.rate = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return l
}

// Acquire blocks until a slot is free. The returned release must be called
// exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	if l.sem != nil {
		if err := l.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	if l.rate != nil {
		if err := l.rate.Wait(ctx); err != nil {
			if l.sem != nil {
				l.sem.Release(1)
			}
			return nil, err
		}
	}
	return func() {
		if l.sem != nil {
			l.sem.Release(1)
		}
	}, nil
}
