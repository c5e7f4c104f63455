package transport

import (
	"fmt"
	"net/http"
	"time"
)

// TimeoutError indicates no response arrived within the attempt budget
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Timeout)
}

// HTTPError indicates the server answered with a non-success status
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, status)
}

// IsNotFound checks if the error indicates a not found response
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// NetworkError wraps a failure below HTTP: DNS, TCP, TLS or a dropped body
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AllEndpointsFailedError is returned when every mirror endpoint failed
type AllEndpointsFailedError struct {
	Endpoints []string
	Last      error
}

func (e *AllEndpointsFailedError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("all endpoints failed (%d tried)", len(e.Endpoints))
	}
	return fmt.Sprintf("all endpoints failed (%d tried): %v", len(e.Endpoints), e.Last)
}

func (e *AllEndpointsFailedError) Unwrap() error {
	return e.Last
}
