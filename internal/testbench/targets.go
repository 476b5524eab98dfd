package testbench

import (
	"github.com/i5heu/GoMoreCollections/pkg/circularqueue"
	"github.com/i5heu/GoMoreCollections/pkg/dropoutstack"
)

// QueueTarget drives a circular queue as a plain FIFO.
type QueueTarget[T any] struct {
	*circularqueue.Queue[T]
}

func (t QueueTarget[T]) Put(v T)          { t.Enqueue(v) }
func (t QueueTarget[T]) Take() (T, error) { return t.Dequeue() }

// RotatingQueueTarget advances the cursor once before every dequeue, so
// consumers skip over one element each time instead of taking the front.
type RotatingQueueTarget[T any] struct {
	*circularqueue.Queue[T]
}

func (t RotatingQueueTarget[T]) Put(v T) { t.Enqueue(v) }

func (t RotatingQueueTarget[T]) Take() (T, error) {
	if _, err := t.Next(); err != nil {
		var zero T
		return zero, err
	}
	return t.Dequeue()
}

// StackTarget drives a dropout stack; producers outrunning consumers evict.
type StackTarget[T any] struct {
	*dropoutstack.Stack[T]
}

func (t StackTarget[T]) Put(v T)          { t.Push(v) }
func (t StackTarget[T]) Take() (T, error) { return t.Pop() }
