package errors

import (
	"fmt"
	"testing"
)

func TestProviderErrorMessage(t *testing.T) {
	withStatus := &ProviderError{Provider: "groq", Status: 429, Message: "slow down"}
	if got := withStatus.Error(); got != "groq: API error (status 429): slow down" {
		t.Errorf("Error() = %q", got)
	}

	withoutStatus := &ProviderError{Provider: "groq", Message: "bad request"}
	if got := withoutStatus.Error(); got != "groq: API error: bad request" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &ProviderError{Status: 429}, true},
		{"server fault", &ProviderError{Status: 503}, true},
		{"client fault", &ProviderError{Status: 400}, false},
		{"wrapped", fmt.Errorf("call failed: %w", &ProviderError{Status: 500}), true},
		{"plain error", fmt.Errorf("boom"), false},
		{"sentinel", ErrEmptyResponse, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
