// Package llm defines the completion provider interface used by the
// insight synthesis layer, plus a typed error taxonomy so callers can
// react to failure classes without parsing message text.
package llm

import (
	"context"
	"errors"
)

// Sentinel errors. Providers wrap these with %w so callers can use
// errors.Is regardless of the underlying transport detail.
var (
	// ErrNoAPIKey means the key is missing or rejected.
	ErrNoAPIKey = errors.New("llm: missing or invalid API key")

	// ErrQuota means the account is out of credit or forbidden.
	ErrQuota = errors.New("llm: quota exhausted")

	// ErrRateLimit means the provider asked us to slow down.
	ErrRateLimit = errors.New("llm: rate limited")

	// ErrProviderDown covers transport failures and 5xx responses.
	ErrProviderDown = errors.New("llm: provider unavailable")

	// ErrMalformed means the provider answered but the payload was not
	// usable (no choices, empty content, undecodable body).
	ErrMalformed = errors.New("llm: malformed response")
)

// Kind labels for the error taxonomy, stable across providers.
const (
	KindAuth        = "auth"
	KindQuota       = "quota"
	KindRateLimit   = "rate_limit"
	KindUnavailable = "unavailable"
	KindMalformed   = "malformed"
	KindUnknown     = "unknown"
)

// Kind classifies an error into one of the taxonomy labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNoAPIKey):
		return KindAuth
	case errors.Is(err, ErrQuota):
		return KindQuota
	case errors.Is(err, ErrRateLimit):
		return KindRateLimit
	case errors.Is(err, ErrProviderDown):
		return KindUnavailable
	case errors.Is(err, ErrMalformed):
		return KindMalformed
	default:
		return KindUnknown
	}
}

// Retryable reports whether the error class may clear on its own.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrProviderDown)
}

// Provider produces one completion per call. Implementations do not
// retry internally; retry policy belongs to the caller.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
	Ping(ctx context.Context) error
}
