package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates that a required credential is missing
	ErrNotConfigured = errors.New("not configured")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrUnauthorized indicates that the request lacks valid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates that the rate limit has been exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstream indicates that an external service answered with an error
	ErrUpstream = errors.New("upstream service error")

	// ErrNetworkOperation indicates a network operation failure
	ErrNetworkOperation = errors.New("network operation failed")

	// ErrStale indicates a result superseded by a newer request
	ErrStale = errors.New("superseded by a newer request")
)

// ServiceError represents a service-level error with additional context
type ServiceError struct {
	Op      string                 // Operation that failed
	Service string                 // Service where the error occurred
	Err     error                  // Underlying error
	Context map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("%s.%s: %v (context: %v)", e.Service, e.Op, e.Err, e.Context)
	}
	return fmt.Sprintf("%s.%s: %v", e.Service, e.Op, e.Err)
}

// Unwrap allows errors.Is and errors.As to work
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}

// WithContext adds context to a ServiceError
func (e *ServiceError) WithContext(key string, value interface{}) *ServiceError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// APIError is a non-2xx answer from an upstream HTTP API.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("%s api error: HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s api error: HTTP %d: %s", e.Service, e.StatusCode, msg)
}

// Unwrap maps the status code onto the sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrUnauthorized
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode == 429:
		return ErrRateLimited
	case e.StatusCode == 408 || e.StatusCode == 504:
		return ErrTimeout
	default:
		return ErrUpstream
	}
}

// NotConfigured returns an ErrNotConfigured carrying the service name.
func NotConfigured(service string) error {
	return fmt.Errorf("%s api key is not configured: %w", service, ErrNotConfigured)
}

// Is, As and New re-export the standard library helpers so callers can
// import a single errors package.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNotConfigured checks if an error is a missing credential error
func IsNotConfigured(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsInvalidInput checks if an error is a validation error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsStale checks if a result was superseded
func IsStale(err error) bool {
	return errors.Is(err, ErrStale)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetworkOperation) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUpstream)
}
