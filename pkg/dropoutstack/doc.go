// Package dropoutstack provides a stack with a fixed depth. When a push would
// exceed the capacity, the oldest element drops out of the bottom; nothing is
// ever rejected. Resize also drops the oldest elements when shrinking.
//
// A typical use is bounded undo history.
//
// A Stack is not safe for concurrent use; hold SyncRoot() around each call
// when sharing one between goroutines.
package dropoutstack
