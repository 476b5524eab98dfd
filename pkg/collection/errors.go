package collection

import (
	"errors"
	"fmt"
)

// Every failure returned by the containers wraps exactly one of these, so
// callers can classify it with errors.Is.
var (
	// ErrArgumentNil is returned when a required source or destination is nil.
	ErrArgumentNil = errors.New("collection: argument is nil")

	// ErrArgumentRange is returned when a numeric argument is outside its domain,
	// or a source sequence yields no elements.
	ErrArgumentRange = errors.New("collection: argument out of range")

	// ErrArgumentOverflow is returned when a destination is too small for the
	// elements being copied into it.
	ErrArgumentOverflow = errors.New("collection: argument would overflow")

	// ErrInvalidOperation is returned when the container's state forbids the call.
	ErrInvalidOperation = errors.New("collection: invalid operation")
)

// CheckCopyTo validates copying count elements into dst starting at index.
// It does not touch dst.
func CheckCopyTo[T any](dst []T, index, count int) error {
	switch {
	case dst == nil:
		return fmt.Errorf("%w: destination slice", ErrArgumentNil)
	case index < 0 || index > len(dst):
		return fmt.Errorf("%w: start index %d for destination of length %d", ErrArgumentRange, index, len(dst))
	case count > len(dst)-index:
		return fmt.Errorf("%w: %d elements do not fit at index %d of destination of length %d", ErrArgumentOverflow, count, index, len(dst))
	}
	return nil
}
