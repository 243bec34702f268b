package apiclient

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when the backend does not answer within the
// configured timeout.
var ErrTimeout = errors.New("request timed out")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// EnvelopeError is returned when the backend answers 2xx with success=false.
type EnvelopeError struct {
	Message string
}

func (e *EnvelopeError) Error() string {
	if e.Message == "" {
		return "backend reported failure"
	}
	return e.Message
}

// Message renders err as the user-facing text stored next to a failed
// entity. Envelope failures without a message fall back to fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var envErr *EnvelopeError
	if errors.As(err, &envErr) {
		if envErr.Message != "" {
			return envErr.Message
		}
		return fallback
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}

	if errors.Is(err, ErrTimeout) {
		return "The server took too long to respond"
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == 404
}
