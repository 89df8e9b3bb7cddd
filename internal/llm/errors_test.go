package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/discoverly/visibility-service/internal/model"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth 401", &AuthError{Provider: model.ProviderOpenAI, Status: 401}, false},
		{"auth 403", &AuthError{Provider: model.ProviderOpenAI, Status: 403}, false},
		{"http 400", &HTTPError{Provider: model.ProviderOpenAI, Status: 400}, false},
		{"http 404", &HTTPError{Provider: model.ProviderOpenAI, Status: 404}, false},
		{"http 429", &HTTPError{Provider: model.ProviderOpenAI, Status: 429}, true},
		{"http 500", &HTTPError{Provider: model.ProviderOpenAI, Status: 500}, true},
		{"http 503", &HTTPError{Provider: model.ProviderOpenAI, Status: 503}, true},
		{"parse error", &ParseError{Provider: model.ProviderGoogle, Err: errors.New("bad json")}, false},
		{"poll timeout", &TimeoutError{Provider: model.ProviderReplicate, Attempts: 30}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"plain error", errors.New("something else"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryable_WrappedError(t *testing.T) {
	err := fmt.Errorf("calling provider: %w", &HTTPError{Provider: model.ProviderOpenAI, Status: 500})
	if !retryable(err) {
		t.Error("wrapped transient error should stay retryable")
	}
}

func TestStatusError(t *testing.T) {
	var authErr *AuthError
	if err := statusError(model.ProviderOpenAI, 401, ""); !errors.As(err, &authErr) {
		t.Errorf("401 should map to AuthError, got %T", err)
	}
	if err := statusError(model.ProviderOpenAI, 403, ""); !errors.As(err, &authErr) {
		t.Errorf("403 should map to AuthError, got %T", err)
	}

	var httpErr *HTTPError
	if err := statusError(model.ProviderOpenAI, 429, "slow down"); !errors.As(err, &httpErr) {
		t.Errorf("429 should map to HTTPError, got %T", err)
	} else if httpErr.Status != 429 {
		t.Errorf("Status = %d, want 429", httpErr.Status)
	}
}
