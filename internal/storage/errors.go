package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"grievance-intake-go/internal/types"
)

// PersistenceError reports that the storage engine could not complete an
// operation. Nothing partial is left behind; callers may retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Retryable is always true; the write was rolled back.
func (e *PersistenceError) Retryable() bool { return true }

// IsPersistence reports whether err is a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// wrap maps gorm errors onto the domain: missing rows become types.ErrNotFound,
// everything else a PersistenceError.
func wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("complaint %s: %w", id, types.ErrNotFound)
	}
	return &PersistenceError{Op: op, Err: err}
}
