package types

import "errors"

var (
	// ErrNotFound is returned when a complaint does not exist.
	ErrNotFound = errors.New("complaint not found")
	// ErrInvalidStatus marks a transition request with a status outside the enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrForbidden marks an actor acting outside its role.
	ErrForbidden = errors.New("not authorized")
)

// ValidationError is a request-fatal, caller-actionable input error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
