package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorUnwrap(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: 401, want: ErrUnauthorized},
		{name: "forbidden", status: 403, want: ErrUnauthorized},
		{name: "not found", status: 404, want: ErrNotFound},
		{name: "rate limited", status: 429, want: ErrRateLimited},
		{name: "gateway timeout", status: 504, want: ErrTimeout},
		{name: "server error", status: 500, want: ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{Service: "tmdb", StatusCode: tt.status})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{Service: "gemini", StatusCode: 400, Message: " API key not valid "}
	assert.Equal(t, "gemini api error: HTTP 400: API key not valid", err.Error())

	bare := &APIError{Service: "tmdb", StatusCode: 502}
	assert.Equal(t, "tmdb api error: HTTP 502", bare.Error())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "network", err: fmt.Errorf("dial: %w", ErrNetworkOperation), want: true},
		{name: "rate limited", err: &APIError{StatusCode: 429}, want: true},
		{name: "server error", err: &APIError{StatusCode: 503}, want: true},
		{name: "not found", err: &APIError{StatusCode: 404}, want: false},
		{name: "not configured", err: NotConfigured("tmdb"), want: false},
		{name: "invalid input", err: ErrInvalidInput, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestServiceError(t *testing.T) {
	err := NewServiceError("discovery", "resolve", ErrNotConfigured).WithContext("query", "space")

	assert.True(t, IsNotConfigured(err))
	assert.Contains(t, err.Error(), "discovery.resolve")
	assert.Contains(t, err.Error(), "query:space")
}
