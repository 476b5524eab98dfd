package collection

import (
	"fmt"
	"iter"

	"github.com/eapache/queue"
)

// Source is anything that can produce a finite sequence of T.
type Source[T any] interface {
	All() iter.Seq[T]
}

// Sized is the capability of reporting an element count up front.
// Sources that implement it are loaded without an intermediate buffer.
type Sized interface {
	Len() int
}

type sliceSource[T any] []T

func (s sliceSource[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}

func (s sliceSource[T]) Len() int { return len(s) }

type seqSource[T any] iter.Seq[T]

func (s seqSource[T]) All() iter.Seq[T] { return iter.Seq[T](s) }

// FromSlice adapts a slice. A nil slice yields a nil Source.
func FromSlice[T any](s []T) Source[T] {
	if s == nil {
		return nil
	}
	return sliceSource[T](s)
}

// FromSeq adapts an iterator. A nil iterator yields a nil Source.
// The result does not implement Sized.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	if seq == nil {
		return nil
	}
	return seqSource[T](seq)
}

// Collect reads src once and returns its elements in iteration order.
//
// Sources implementing Sized are read straight into a slice of that length.
// Anything else is first buffered in a growable ring queue and then copied out.
// It fails with ErrArgumentNil for a nil src and ErrArgumentRange when src
// yields nothing.
func Collect[T any](src Source[T]) ([]T, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: source", ErrArgumentNil)
	}

	if sized, ok := src.(Sized); ok {
		n := sized.Len()
		if n <= 0 {
			return nil, fmt.Errorf("%w: source has no elements", ErrArgumentRange)
		}
		out := make([]T, 0, n)
		for v := range src.All() {
			out = append(out, v)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: source has no elements", ErrArgumentRange)
		}
		return out, nil
	}

	buf := queue.New()
	for v := range src.All() {
		buf.Add(v)
	}
	n := buf.Length()
	if n == 0 {
		return nil, fmt.Errorf("%w: source has no elements", ErrArgumentRange)
	}
	out := make([]T, n)
	for i := range out {
		// comma-ok keeps nil interface elements as the zero T
		out[i], _ = buf.Remove().(T)
	}
	return out, nil
}
