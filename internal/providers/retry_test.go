package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryTransientSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	result, err := RetryTransient(context.Background(), 2, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("connection timeout")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryTransientExhaustsBudget(t *testing.T) {
	attempts := 0
	_, err := RetryTransient(context.Background(), 1, func(ctx context.Context) (string, error) {
		attempts++
		return "", errors.New("connection timed out")
	})

	require.Error(t, err)
	assert.IsType(t, &ProviderConnectionError{}, err)
	assert.Equal(t, 2, attempts) // initial attempt + 1 retry
}

func TestRetryTransientNeverRetriesNonTransient(t *testing.T) {
	attempts := 0
	_, err := RetryTransient(context.Background(), 2, func(ctx context.Context) (string, error) {
		attempts++
		return "", errors.New("authentication failed")
	})

	require.Error(t, err)
	assert.IsType(t, &AuthenticationError{}, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryTransientRateLimitRetryAfterTooLongIsNonRetriable(t *testing.T) {
	attempts := 0
	tooLong := 95.0
	_, err := RetryTransient(context.Background(), 2, func(ctx context.Context) (string, error) {
		attempts++
		return "", &RateLimitError{ProviderError: ProviderError{Message: "rate limit"}, RetryAfter: &tooLong}
	})

	require.Error(t, err)
	assert.IsType(t, &RateLimitError{}, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryTransientRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	_, err := RetryTransient(ctx, 2, func(ctx context.Context) (string, error) {
		attempts++
		return "", errors.New("connection timeout")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}
