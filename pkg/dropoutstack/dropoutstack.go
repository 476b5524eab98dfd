package dropoutstack

import (
	"fmt"
	"iter"
	"reflect"
	"sync"

	"github.com/i5heu/GoMoreCollections/internal/syncroot"
	"github.com/i5heu/GoMoreCollections/pkg/collection"
)

// DefaultCapacity is the capacity of a zero Stack and of NewDefault.
const DefaultCapacity = 4

var (
	// ErrEmpty is returned by Pop and Peek on an empty stack.
	ErrEmpty = fmt.Errorf("%w: dropout stack is empty", collection.ErrInvalidOperation)

	// ErrCapacity is returned when a capacity is zero or negative.
	ErrCapacity = fmt.Errorf("%w: capacity must be positive", collection.ErrArgumentRange)
)

// Stack is a LIFO stack with a fixed capacity. Pushing onto a full stack
// evicts the oldest element instead of failing.
//
// items[0] is the bottom (oldest) and items[count-1] the top (newest).
type Stack[T any] struct {
	items []T
	count int
	root  syncroot.Root
}

// New returns an empty stack holding at most capacity elements.
func New[T any](capacity int) (*Stack[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrCapacity, capacity)
	}
	return &Stack[T]{items: make([]T, capacity)}, nil
}

// NewDefault returns an empty stack with DefaultCapacity.
func NewDefault[T any]() *Stack[T] {
	return &Stack[T]{items: make([]T, DefaultCapacity)}
}

// NewFrom loads every element of src, first element at the bottom. The
// capacity equals the number of elements, so the result starts full.
// It fails with collection.ErrArgumentNil for a nil src and
// collection.ErrArgumentRange when src yields nothing.
func NewFrom[T any](src collection.Source[T]) (*Stack[T], error) {
	items, err := collection.Collect(src)
	if err != nil {
		return nil, fmt.Errorf("dropout stack: %w", err)
	}
	return &Stack[T]{items: items, count: len(items)}, nil
}

// NewFromSlice is NewFrom over a slice. The slice is copied.
func NewFromSlice[T any](items []T) (*Stack[T], error) {
	return NewFrom(collection.FromSlice(items))
}

// NewFromSeq is NewFrom over an iterator.
func NewFromSeq[T any](seq iter.Seq[T]) (*Stack[T], error) {
	return NewFrom(collection.FromSeq(seq))
}

func (s *Stack[T]) lazyInit() {
	if s.items == nil {
		s.items = make([]T, DefaultCapacity)
	}
}

// Len returns the number of elements on the stack.
func (s *Stack[T]) Len() int {
	return s.count
}

// Cap returns the most elements the stack holds before evicting.
func (s *Stack[T]) Cap() int {
	if s.items == nil {
		return DefaultCapacity
	}
	return len(s.items)
}

// Push places item on top. On a full stack the bottom element is dropped and
// the rest shift down one slot first.
func (s *Stack[T]) Push(item T) {
	s.lazyInit()
	if s.count == len(s.items) {
		copy(s.items, s.items[1:])
		s.items[s.count-1] = item
		return
	}
	s.items[s.count] = item
	s.count++
}

// Pop removes and returns the top element.
func (s *Stack[T]) Pop() (T, error) {
	var zero T
	if s.count == 0 {
		return zero, ErrEmpty
	}
	s.count--
	item := s.items[s.count]
	s.items[s.count] = zero
	return item, nil
}

// Peek returns the top element without removing it.
func (s *Stack[T]) Peek() (T, error) {
	if s.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return s.items[s.count-1], nil
}

// Resize changes the capacity. When the new capacity is below Len, only the
// newest newCapacity elements survive, in their original order.
func (s *Stack[T]) Resize(newCapacity int) error {
	if newCapacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrCapacity, newCapacity)
	}
	keep := min(s.count, newCapacity)
	items := make([]T, newCapacity)
	copy(items, s.items[s.count-keep:s.count])
	s.items = items
	s.count = keep
	return nil
}

// Clear drops every element. The capacity is unchanged.
func (s *Stack[T]) Clear() {
	clear(s.items[:s.count])
	s.count = 0
}

// ContainsFunc reports whether any element satisfies match.
func (s *Stack[T]) ContainsFunc(match func(T) bool) bool {
	for _, v := range s.items[:s.count] {
		if match(v) {
			return true
		}
	}
	return false
}

// Contains reports whether v is on s.
func Contains[T comparable](s *Stack[T], v T) bool {
	return s.ContainsFunc(func(e T) bool { return e == v })
}

// All yields the elements bottom to top. That is the reverse of Pop order.
func (s *Stack[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for i := 0; i < s.count; i++ {
			if !yield(s.items[i]) {
				return
			}
		}
	}
}

// CopyTo writes the elements bottom to top into dst starting at index.
// Slots of dst outside that range are left alone.
func (s *Stack[T]) CopyTo(dst []T, index int) error {
	if err := collection.CheckCopyTo(dst, index, s.count); err != nil {
		return fmt.Errorf("dropout stack: %w", err)
	}
	copy(dst[index:], s.items[:s.count])
	return nil
}

// ToSlice returns the elements bottom to top.
func (s *Stack[T]) ToSlice() []T {
	out := make([]T, s.count)
	copy(out, s.items[:s.count])
	return out
}

// SyncRoot returns the mutex callers should hold while using s from more than
// one goroutine. The stack never locks it itself.
func (s *Stack[T]) SyncRoot() *sync.Mutex {
	return s.root.Get()
}

func (s *Stack[T]) String() string {
	return fmt.Sprintf("DropoutStack[%s]{Count: %d, Capacity: %d}", reflect.TypeFor[T](), s.count, s.Cap())
}
