package domain

import (
	"fmt"
	"net/http"
)

// UpstreamError attributes a failure to a specific upstream URL and operation,
// the way the teacher's EndpointError attributes failures to an endpoint.
type UpstreamError struct {
	Err       error
	Operation string
	URL       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed for upstream %s: %v", e.Operation, e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(operation, url string, err error) *UpstreamError {
	return &UpstreamError{Operation: operation, URL: url, Err: err}
}

// APIError is the only error shape the HTTP boundary renders to callers.
// StatusCode is the HTTP status to return; Message is the caller-visible text.
type APIError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func NewAPIError(status int, message string, err error) *APIError {
	return &APIError{StatusCode: status, Message: message, Err: err}
}

func ErrInvalidRequest(message string) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, Message: message}
}

func ErrRateLimited(message string) *APIError {
	return &APIError{StatusCode: http.StatusTooManyRequests, Message: message}
}

func ErrServiceUnavailable(message string, err error) *APIError {
	return &APIError{StatusCode: http.StatusServiceUnavailable, Message: message, Err: err}
}

// ConfigError marks a startup configuration failure; bootstrap treats it as fatal.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// ErrNoUpstreams is returned by PoolManager.Next when the pool is empty.
var ErrNoUpstreams = fmt.Errorf("no upstream translation endpoints configured")
