package providers

import (
	"context"
	"errors"
	"math"
	"time"
)

// Retry tuning constants, transcribed from the original _retry_transient
// defaults: two retries, 1s base backoff for connection errors capped at
// 8s, 10s base backoff for rate limits capped at 60s.
const (
	DefaultMaxRetries          = 2
	defaultBaseDelay           = 1 * time.Second
	defaultRateLimitBaseDelay  = 10 * time.Second
	connectionBackoffCap       = 8 * time.Second
	rateLimitBackoffCap        = 60 * time.Second
	rateLimitNonRetriableAfter = 90 * time.Second
)

// RetryTransient invokes fn, retrying on RateLimitError and
// ProviderConnectionError with exponential backoff up to maxRetries
// additional attempts. All other classified errors (authentication,
// permission, not-found, or a plain ProviderError) are returned
// immediately without retry. A RateLimitError whose RetryAfter exceeds
// 90 seconds is treated as non-retriable and returned immediately.
func RetryTransient[T any](ctx context.Context, maxRetries int, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		classified := ClassifyError(err)
		lastErr = classified

		var rle *RateLimitError
		var ce *ProviderConnectionError
		switch {
		case errors.As(classified, &rle):
			if rle.RetryAfter != nil && *rle.RetryAfter > rateLimitNonRetriableAfter.Seconds() {
				return zero, classified
			}
			if attempt == maxRetries {
				return zero, classified
			}
			if err := sleepBackoff(ctx, defaultRateLimitBaseDelay, rateLimitBackoffCap, attempt); err != nil {
				return zero, err
			}
		case errors.As(classified, &ce):
			if attempt == maxRetries {
				return zero, classified
			}
			if err := sleepBackoff(ctx, defaultBaseDelay, connectionBackoffCap, attempt); err != nil {
				return zero, err
			}
		default:
			return zero, classified
		}
	}

	return zero, lastErr
}

func sleepBackoff(ctx context.Context, base, cap time.Duration, attempt int) error {
	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > cap {
		delay = cap
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
