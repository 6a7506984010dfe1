package utils

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig holds the parameters for the retry strategy.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     Logger

	// ShouldRetry decides whether err is transient. A nil func retries everything.
	ShouldRetry func(err error) bool
	// DelayHint lets the caller override the computed backoff, e.g. from a
	// Retry-After header. Returning ok=false keeps the computed delay.
	DelayHint func(err error) (delay time.Duration, ok bool)
}

// Backoff returns the delay before the given retry (1-based): BaseDelay
// doubled per retry and capped at MaxDelay.
func (r *RetryConfig) Backoff(retry int) time.Duration {
	delay := r.BaseDelay
	for i := 1; i < retry; i++ {
		delay *= 2
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}

// Do executes fn with capped exponential back-off retry logic.
func (r *RetryConfig) Do(ctx context.Context, operationName string, fn func() error) error {
	var lastErr error
	attempts := r.MaxRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if r.ShouldRetry != nil && !r.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay := r.Backoff(attempt)
		if r.DelayHint != nil {
			if hint, ok := r.DelayHint(lastErr); ok && (r.MaxDelay <= 0 || hint <= r.MaxDelay) {
				delay = hint
			}
		}

		if r.Logger != nil {
			r.Logger.With(Fields{
				"operation":  operationName,
				"retryCount": attempt,
				"error":      lastErr.Error(),
			}).Warn("Retrying request in %v", delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: %w", operationName, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, attempts, lastErr)
}
