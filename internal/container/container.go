package container

import (
	"iter"
	"sync"
)

// ContainerValidationInterface is a *type constraint* that every container in
// this module satisfies. It is only used at compile time (see Enforce) so the
// shared surface cannot drift between implementations.
type ContainerValidationInterface[T any] interface {
	// Len returns how many elements are currently held.
	Len() int

	// All returns a restartable, finite sequence of the held elements.
	All() iter.Seq[T]

	// CopyTo writes the elements, in All order, into dst starting at index.
	CopyTo(dst []T, index int) error

	// ToSlice returns a fresh slice in All order.
	ToSlice() []T

	// SyncRoot returns the lock callers use to serialise access.
	SyncRoot() *sync.Mutex
}

// Enforce is a compile-time check; calling it does nothing.
func Enforce[T any, C ContainerValidationInterface[T]](C) {}
