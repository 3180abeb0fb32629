package driver

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker"
)

var (
	// ErrNotFound is returned when the target node or edge does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned for authentication or authorization
	// failures. These are never retried.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnsupported is returned when the backend rejects an operation it
	// does not implement, such as direct node deletion on older API versions.
	ErrUnsupported = errors.New("operation not supported")
)

// APIError carries the HTTP status of a failed remote call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api error: status %d", e.Status)
	}
	return fmt.Sprintf("remote api error: status %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err means the target was already gone.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// IsFatal reports whether err must abort the whole operation without retry.
// Authentication failures qualify; nothing useful can happen after one.
func IsFatal(err error) bool {
	if errors.Is(err, ErrUnauthorized) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && (apiErr.Status == 401 || apiErr.Status == 403)
}

// IsRetryable reports whether err is transient: network timeouts, 5xx
// responses, and an open circuit breaker. 4xx responses other than 404 are
// permanent and surface immediately.
func IsRetryable(err error) bool {
	if err == nil || IsFatal(err) || IsNotFound(err) || errors.Is(err, ErrUnsupported) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	// Unclassified transport failures (connection refused, reset) come
	// through as plain errors from net/http; treat them as transient.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
