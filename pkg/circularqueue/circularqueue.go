// Package circularqueue implements a queue whose elements form a single cycle.
//
// There is no fixed head or tail. The element under the cursor is the front;
// Enqueue inserts directly before it, so the newest element is always the last
// one visited before the cursor comes back around. A caller may mark the
// cursor position as the "beginning" to count revolutions.
//
// A Queue is not safe for concurrent use. Callers sharing one must hold
// SyncRoot() around every operation.
package circularqueue

import (
	"fmt"
	"iter"
	"reflect"
	"sync"

	"github.com/i5heu/GoMoreCollections/internal/syncroot"
	"github.com/i5heu/GoMoreCollections/pkg/collection"
)

var (
	// ErrEmpty is returned by Dequeue, Next, Peek and Current on an empty queue.
	ErrEmpty = fmt.Errorf("%w: circular queue is empty", collection.ErrInvalidOperation)

	// ErrNoBeginning is returned by IsBeginning when no beginning is marked.
	ErrNoBeginning = fmt.Errorf("%w: no beginning has been marked", collection.ErrInvalidOperation)
)

// node is one arena slot. next is the arena index of the successor.
type node[T any] struct {
	value T
	next  int
}

// Queue is a cyclic singly linked queue with a movable cursor.
// Nodes live in an arena slice and link to each other by index; removed
// slots go on a free list and are reused by later enqueues.
//
// The zero value is an empty queue ready to use.
type Queue[T any] struct {
	nodes []node[T]
	free  []int

	// current and previous are only meaningful while count > 0.
	// previous == current when count == 1.
	current  int
	previous int

	beginning int
	marked    bool

	count int
	root  syncroot.Root
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// NewFrom enqueues every element of src in iteration order, so the first
// element becomes Current. It fails with collection.ErrArgumentNil for a nil
// src and collection.ErrArgumentRange when src yields nothing.
func NewFrom[T any](src collection.Source[T]) (*Queue[T], error) {
	items, err := collection.Collect(src)
	if err != nil {
		return nil, fmt.Errorf("circular queue: %w", err)
	}
	q := New[T]()
	q.nodes = make([]node[T], 0, len(items))
	for _, item := range items {
		q.Enqueue(item)
	}
	return q, nil
}

// NewFromSlice is NewFrom over a slice. A nil slice is an absent source.
func NewFromSlice[T any](items []T) (*Queue[T], error) {
	return NewFrom(collection.FromSlice(items))
}

// NewFromSeq is NewFrom over an iterator. A nil iterator is an absent source.
func NewFromSeq[T any](seq iter.Seq[T]) (*Queue[T], error) {
	return NewFrom(collection.FromSeq(seq))
}

// Len returns the number of elements in the queue.
func (q *Queue[T]) Len() int {
	return q.count
}

// Enqueue inserts item directly before the cursor, i.e. at the end of the
// current revolution.
func (q *Queue[T]) Enqueue(item T) {
	n := q.alloc(item)
	if q.count == 0 {
		q.nodes[n].next = n
		q.current = n
		q.previous = n
	} else {
		q.nodes[n].next = q.current
		q.nodes[q.previous].next = n
		q.previous = n
	}
	q.count++
}

// Dequeue removes and returns the element under the cursor; the cursor moves
// to its successor.
//
// If a beginning is marked, it is re-marked at the new cursor position on
// every dequeue, whether or not the removed element was the marked one.
// Removing the last element clears the marker.
func (q *Queue[T]) Dequeue() (T, error) {
	if q.count == 0 {
		var zero T
		return zero, ErrEmpty
	}

	removed := q.current
	item := q.nodes[removed].value
	if q.count == 1 {
		q.reset()
		return item, nil
	}

	q.current = q.nodes[removed].next
	q.nodes[q.previous].next = q.current
	if q.marked {
		q.beginning = q.current
	}
	q.release(removed)
	q.count--
	return item, nil
}

// Next advances the cursor one step and returns the new current element.
func (q *Queue[T]) Next() (T, error) {
	if q.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	q.previous = q.current
	q.current = q.nodes[q.current].next
	return q.nodes[q.current].value, nil
}

// Peek returns the element under the cursor without moving it.
func (q *Queue[T]) Peek() (T, error) {
	return q.Current()
}

// Current returns the element under the cursor.
func (q *Queue[T]) Current() (T, error) {
	if q.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return q.nodes[q.current].value, nil
}

// MarkBeginning records the cursor position as the beginning. On an empty
// queue there is no position to record and any marker is cleared.
func (q *Queue[T]) MarkBeginning() {
	if q.count == 0 {
		q.ClearBeginning()
		return
	}
	q.beginning = q.current
	q.marked = true
}

// ClearBeginning removes the beginning marker.
func (q *Queue[T]) ClearBeginning() {
	q.beginning = 0
	q.marked = false
}

// IsBeginning reports whether the cursor sits on the marked node.
func (q *Queue[T]) IsBeginning() (bool, error) {
	if !q.marked {
		return false, ErrNoBeginning
	}
	return q.current == q.beginning, nil
}

// All yields every element once, starting at the cursor as it is when ranging
// begins and following successor links. Moving the cursor while ranging does
// not change where the pass ends; structural changes while ranging are
// undefined.
func (q *Queue[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		i := q.current
		for range q.count {
			if !yield(q.nodes[i].value) {
				return
			}
			i = q.nodes[i].next
		}
	}
}

// CopyTo writes the elements in All order into dst starting at index.
func (q *Queue[T]) CopyTo(dst []T, index int) error {
	if err := collection.CheckCopyTo(dst, index, q.count); err != nil {
		return fmt.Errorf("circular queue: %w", err)
	}
	for v := range q.All() {
		dst[index] = v
		index++
	}
	return nil
}

// ToSlice returns the elements in All order.
func (q *Queue[T]) ToSlice() []T {
	out := make([]T, q.count)
	_ = q.CopyTo(out, 0)
	return out
}

// SyncRoot returns the mutex callers should hold while using q from more than
// one goroutine. The queue never locks it itself.
func (q *Queue[T]) SyncRoot() *sync.Mutex {
	return q.root.Get()
}

func (q *Queue[T]) String() string {
	return fmt.Sprintf("CircularQueue[%s]{Count: %d}", reflect.TypeFor[T](), q.count)
}

func (q *Queue[T]) alloc(item T) int {
	if n := len(q.free); n > 0 {
		i := q.free[n-1]
		q.free = q.free[:n-1]
		q.nodes[i] = node[T]{value: item}
		return i
	}
	q.nodes = append(q.nodes, node[T]{value: item})
	return len(q.nodes) - 1
}

// release drops the slot's value so it can be collected and recycles the index.
func (q *Queue[T]) release(i int) {
	q.nodes[i] = node[T]{}
	q.free = append(q.free, i)
}

// reset empties the queue and gives the arena back.
func (q *Queue[T]) reset() {
	q.nodes = nil
	q.free = nil
	q.current = 0
	q.previous = 0
	q.count = 0
	q.ClearBeginning()
}
