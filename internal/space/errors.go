package space

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAdmitted indicates a body that already belongs to a space.
	ErrAlreadyAdmitted = errors.New("space: body already admitted")

	// ErrNotMember indicates a body that does not belong to this space.
	ErrNotMember = errors.New("space: body not in this space")

	// ErrInvalidTimestep indicates a non-positive step duration.
	ErrInvalidTimestep = errors.New("space: timestep must be positive")

	// ErrNoBackend indicates a step on a space without a solver.
	ErrNoBackend = errors.New("space: no solver backend")
)

// StepError wraps a step failure with the step it happened on.
type StepError struct {
	Step    uint64
	Dt      float32
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (dt=%g): %v", e.Step, e.Dt, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
