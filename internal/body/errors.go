package body

import "errors"

var (
	// ErrNotOwner indicates an index outside the body's chunk of that kind.
	ErrNotOwner = errors.New("body: index not owned by body")

	// ErrNotAdmitted indicates an operation that needs buffer memory on a
	// body that is not part of a space.
	ErrNotAdmitted = errors.New("body: not admitted into a space")

	// ErrInvalidModel indicates a model referencing particles it does not define.
	ErrInvalidModel = errors.New("body: invalid model")
)
