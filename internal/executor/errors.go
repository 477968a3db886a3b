package executor

import (
	"errors"
	"fmt"
)

// Failure kinds. A StageError matches exactly one of them with errors.Is.
var (
	ErrResolution      = errors.New("stage resolution failed")
	ErrAllocation      = errors.New("output allocation failed")
	ErrConfiguration   = errors.New("stage configuration failed")
	ErrProcessing      = errors.New("stage processing failed")
	ErrRetirement      = errors.New("dataset retirement failed")
	ErrSynchronization = errors.New("worker synchronization failed")
	ErrProvenance      = errors.New("provenance append failed")
)

// ErrDefinition is returned when the chain definition cannot be persisted
// before the first stage runs.
var ErrDefinition = errors.New("chain definition save failed")

// StageError reports which stage of a chain failed and why.
type StageError struct {
	Index   int
	StageID string
	Kind    error
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d ('%s'): %v: %v", e.Index, e.StageID, e.Kind, e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func stageError(index int, id string, kind, err error) *StageError {
	return &StageError{Index: index, StageID: id, Kind: kind, Err: err}
}
