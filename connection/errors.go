package connection

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed connection failure carrying a hard/soft
// classification. Hard errors should not be retried with the same
// parameters; soft errors are transient and worth retrying later.
type Error struct {
	StatusCode int
	Hard       bool
	Message    string
	Err        error
}

func (e *Error) Error() string {
	kind := "soft"
	if e.Hard {
		kind = "hard"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("connection error (%s, http %d): %s", kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("connection error (%s): %s", kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewHardError builds a non-retryable failure.
func NewHardError(message string, err error) *Error {
	return &Error{Hard: true, Message: message, Err: err}
}

// NewSoftError builds a transient failure.
func NewSoftError(message string, err error) *Error {
	return &Error{Message: message, Err: err}
}

// errorFromStatus classifies a non-success HTTP status. Rate limiting,
// timeouts and server errors are soft; everything else in 4xx is hard.
func errorFromStatus(statusCode int, message string) *Error {
	soft := statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusRequestTimeout ||
		statusCode >= 500
	return &Error{StatusCode: statusCode, Hard: !soft, Message: message}
}

// IsHard reports whether the error is a non-retryable connection error.
func IsHard(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Hard
}

// IsNotFound reports whether the error is an HTTP 404. Callers treat
// a 404 on a stored position as "position lost, restart from latest".
func IsNotFound(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound
}
