package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalid           = errors.New("invalid")
	ErrConflict          = errors.New("conflict")
	ErrTooMany           = errors.New("too many requests")
	ErrInternal          = errors.New("internal")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrQuotaExceeded     = errors.New("daily message limit reached")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// StatusError carries an upstream HTTP status so retry layers can tell
// rate-limit responses from server errors.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}

func NewStatusError(code int, msg string) *StatusError {
	return &StatusError{StatusCode: code, Message: msg}
}

// StatusOf returns the HTTP status embedded in err, or 0 when err carries none.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
