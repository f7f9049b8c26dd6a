package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when a job is asked to make a transition its
	// current status does not allow, or when a job id is unknown.
	ErrInvalidState = errors.New("invalid job state")

	// ErrCancelled is the terminal error of a job cancelled before it ran,
	// and the error a cooperative body should return when it stops early.
	ErrCancelled = errors.New("job cancelled")

	// ErrUnknownJobType is returned by the registry for unregistered types.
	ErrUnknownJobType = errors.New("unknown job type")
)

// ExecutionError wraps a failure raised by a job body.
type ExecutionError struct {
	JobID ID
	Type  string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("job %d (%s) failed: %v", e.JobID, e.Type, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a failure of the job store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("job store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// invalidTransition builds an ErrInvalidState describing the attempted move.
func invalidTransition(id ID, from, to Status) error {
	return fmt.Errorf("%w: job %d cannot go from %s to %s", ErrInvalidState, id, from, to)
}

func notEditable(id ID, status Status) error {
	return fmt.Errorf("%w: job %d is already %s", ErrInvalidState, id, status)
}
