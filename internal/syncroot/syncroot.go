// Package syncroot provides the lock that containers hand out to callers who
// need to guard a sequence of operations. The containers never take it
// themselves.
package syncroot

import (
	"sync"
	"sync/atomic"
)

// Root lazily allocates one mutex per owner. The zero value is ready to use
// and must not be copied after first use.
type Root struct {
	mu atomic.Pointer[sync.Mutex]
}

// Get returns the owner's mutex, creating it on first call. Concurrent first
// calls agree on a single mutex.
func (r *Root) Get() *sync.Mutex {
	if mu := r.mu.Load(); mu != nil {
		return mu
	}
	r.mu.CompareAndSwap(nil, new(sync.Mutex))
	return r.mu.Load()
}
