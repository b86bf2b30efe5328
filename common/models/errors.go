package models

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the version engine. Handlers map the
// not-found family to 404 and ErrInvalidState to 409.
var (
	// ErrProjectNotFound is returned when a project does not exist
	ErrProjectNotFound = errors.New("project not found")

	// ErrGenerationNotFound is returned when a generation does not exist
	ErrGenerationNotFound = errors.New("generation not found")

	// ErrVersionNotFound is returned when a project has no generation with
	// the requested version number
	ErrVersionNotFound = errors.New("version not found")

	// ErrInvalidState is returned for operations rejected by lifecycle
	// rules, e.g. activating a non-completed generation or deleting the
	// active one
	ErrInvalidState = errors.New("invalid state")
)

// StorageWriteError wraps filesystem failures during save. The generation
// is marked Failed and the error re-raised to the caller.
type StorageWriteError struct {
	Op  string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("storage write failed during %s: %v", e.Op, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// InvalidState builds an ErrInvalidState with a human-readable reason
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}
