package learning

import (
	"errors"
	"fmt"
)

// Sentinel errors for the learning package.
// Use errors.Is to check: errors.Is(err, learning.ErrValidation)
var (
	ErrValidation       = errors.New("learning: validation failed")
	ErrItemNotFound     = errors.New("learning: item not found")
	ErrConcurrentUpdate = errors.New("learning: item was modified by another review")
)

// ValidationError reports a rejected input or a stored item that violates
// an invariant. It matches ErrValidation via errors.Is.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("learning: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
