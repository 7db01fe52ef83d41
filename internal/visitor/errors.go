package visitor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no record has the requested id.
	ErrNotFound = errors.New("visitor not found")

	// ErrNotArrived rejects a sign-out for a visitor with no time-in.
	ErrNotArrived = errors.New("visitor has not arrived")
)

// ValidationError reports a missing or invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
