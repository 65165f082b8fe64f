package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"breakdown/internal/domain"
)

// RetryPolicy is bounded exponential backoff. MaxAttempts counts the first
// try, so MaxAttempts=3 means two retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryPolicy retries twice, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unchanged.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts || !IsRetryable(err) || ctx.Err() != nil {
			break
		}

		wait := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, lastErr
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}

// IsRetryable classifies errors for the retry loop. Transient backend
// failures and malformed output are retried; caller mistakes, client-side
// rejections and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrNotFound) {
		return false
	}

	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		switch {
		case provErr.Status == http.StatusRequestTimeout, provErr.Status == http.StatusTooManyRequests:
			return true
		case provErr.Status >= 400 && provErr.Status < 500:
			return false
		default:
			return true
		}
	}

	var transErr *domain.TransportError
	var timeoutErr *domain.TimeoutError
	var malformed *domain.MalformedResponseError
	return errors.As(err, &transErr) ||
		errors.As(err, &timeoutErr) ||
		errors.As(err, &malformed)
}
