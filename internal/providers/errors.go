// Package providers defines the uniform LLM provider abstraction consumed
// by every pipeline stage: Complete/CompleteJSON, transient-error retry,
// and JSON extraction from free-form model output.
package providers

import (
	"errors"
	"net"
	"strings"
)

// ProviderError is the base error raised by a Provider when the
// underlying SDK call fails in a way that doesn't fit a more specific
// subtype. Message is truncated to 200 characters.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// AuthenticationError indicates bad or missing API credentials.
type AuthenticationError struct{ ProviderError }

// ProviderPermissionError indicates the credentials are valid but lack
// permission for the requested operation.
type ProviderPermissionError struct{ ProviderError }

// RateLimitError indicates the provider rejected the call due to rate
// limiting. RetryAfter, when present, is the provider-suggested number
// of seconds to wait before retrying.
type RateLimitError struct {
	ProviderError
	RetryAfter *float64
}

// ModelNotFoundError indicates the requested model or resource does
// not exist.
type ModelNotFoundError struct{ ProviderError }

// ProviderConnectionError indicates a transport-level failure: timeout,
// connection refused, DNS failure.
type ProviderConnectionError struct{ ProviderError }

const maxClassifiedMessageLen = 200

func truncate(msg string) string {
	if len(msg) <= maxClassifiedMessageLen {
		return msg
	}
	return msg[:maxClassifiedMessageLen]
}

// timeoutLike is implemented by errors (e.g. net.Error) that can
// self-report as a timeout without a substring match.
type timeoutLike interface {
	Timeout() bool
}

// ClassifyError converts a raw error into the typed provider-error
// hierarchy by matching lowercased substrings against its message.
// Pure and total: every error maps to exactly one typed result.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	// Errors already classified pass through unchanged.
	var pe *ProviderError
	var ae *AuthenticationError
	var perm *ProviderPermissionError
	var rle *RateLimitError
	var mnf *ModelNotFoundError
	var ce *ProviderConnectionError
	switch {
	case errors.As(err, &ae), errors.As(err, &perm), errors.As(err, &rle),
		errors.As(err, &mnf), errors.As(err, &ce), errors.As(err, &pe):
		return err
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "authentication"),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "401"):
		return &AuthenticationError{ProviderError{Message: truncate(msg)}}

	case strings.Contains(lower, "permission"),
		strings.Contains(lower, "403"):
		return &ProviderPermissionError{ProviderError{Message: truncate(msg)}}

	case strings.Contains(lower, "rate") && strings.Contains(lower, "limit"):
		return &RateLimitError{ProviderError: ProviderError{Message: truncate(msg)}}

	case strings.Contains(lower, "not found"),
		strings.Contains(lower, "404"):
		return &ModelNotFoundError{ProviderError{Message: truncate(msg)}}

	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "timed out"),
		isTimeoutOrConnection(err):
		return &ProviderConnectionError{ProviderError{Message: truncate(msg)}}

	default:
		return &ProviderError{Message: truncate(msg)}
	}
}

func isTimeoutOrConnection(err error) bool {
	var t timeoutLike
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) || errors.As(err, &dnsErr)
}

// FriendlyError produces a short human-readable message for a
// classified provider error, suitable for surfacing to end users.
func FriendlyError(err error) string {
	switch e := ClassifyError(err).(type) {
	case *AuthenticationError:
		return "Authentication failed — check your API key."
	case *ProviderPermissionError:
		return "The configured credentials do not have permission for this operation."
	case *RateLimitError:
		return "The provider is rate-limiting requests — please retry shortly."
	case *ModelNotFoundError:
		return "The requested model was not found."
	case *ProviderConnectionError:
		return "Could not reach the provider — check connectivity."
	case *ProviderError:
		return e.Message
	default:
		return "An unexpected provider error occurred."
	}
}
