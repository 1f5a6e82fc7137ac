package backend

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrInvalidConfig     = errors.New("invalid backend configuration")
)

// APIError is an error reported by the backend itself, either as a non-2xx
// status or as a {"success": false} body.
type APIError struct {
	Status  int
	Message string
	// Refused is set when the backend received the request and declined it.
	// Server faults (5xx) are not refusals.
	Refused bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) BackendMessage() string {
	return e.Message
}

func (e *APIError) Rejected() bool {
	return e.Refused
}

// isRefusal keeps business rejections from tripping the circuit breaker.
func isRefusal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Refused
}
