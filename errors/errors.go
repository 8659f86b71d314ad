// Package errors defines the error taxonomy shared by the model provider
// backends.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common provider failure conditions
var (
	// ErrMissingCredential indicates a backend was selected without its API key
	ErrMissingCredential = errors.New("credential not configured")

	// ErrEmptyResponse indicates the provider answered without any content
	ErrEmptyResponse = errors.New("provider returned no content")
)

// ProviderError carries the backend name and HTTP status of a failed model
// call so failover logging stays actionable.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: API error (status %d): %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: API error: %s", e.Provider, e.Message)
}

// Retryable reports whether another attempt on the same backend could
// plausibly succeed: rate limits and server-side faults.
func (e *ProviderError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

// IsRetryable reports whether err is a retryable provider error.
func IsRetryable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retryable()
}
