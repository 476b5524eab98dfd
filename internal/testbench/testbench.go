package testbench

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/i5heu/GoMoreCollections/pkg/collection"
)

// Config is only about concurrency: how many producers, how many consumers.
type Config struct {
	NumProducers int
	NumConsumers int
}

// Target is what the workload drives. The containers are not thread-safe, so
// every Put, Take and Len is made while holding SyncRoot().
type Target[T any] interface {
	// Put adds an element. It never fails; a bounded target may evict.
	Put(T)

	// Take removes an element. An error wrapping
	// collection.ErrInvalidOperation means the target is empty.
	Take() (T, error)

	Len() int
	SyncRoot() *sync.Mutex
}

// Result summarises one timed run.
type Result struct {
	Produced  int64
	Consumed  int64
	Remaining int
	Elapsed   time.Duration
}

// Dropped is how many produced elements were neither consumed nor left in
// the target, i.e. evicted.
func (r Result) Dropped() int64 {
	return r.Produced - r.Consumed - int64(r.Remaining)
}

// RunTimedTest spawns producers and consumers that run for testDuration,
// counting how many elements pass through the target in that window. Once
// the window closes, producers stop and consumers drain whatever is left.
//
// The run aborts early if ctx is cancelled or Take fails with anything other
// than an empty-target error.
func RunTimedTest[T any, C Target[T]](
	ctx context.Context,
	target C,
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, testDuration)
	defer cancel()

	var produced, consumed, msgIndex atomic.Int64
	mu := target.SyncRoot()
	start := time.Now()

	// drain is closed once every producer has returned.
	drain := make(chan struct{})

	consumers, consumeCtx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.NumConsumers; i++ {
		consumers.Go(func() error {
			for {
				mu.Lock()
				_, err := target.Take()
				mu.Unlock()

				switch {
				case err == nil:
					consumed.Add(1)
				case errors.Is(err, collection.ErrInvalidOperation):
					if err := consumeCtx.Err(); err != nil {
						return err
					}
					select {
					case <-drain:
						return nil
					default:
						runtime.Gosched()
					}
				default:
					return err
				}
			}
		})
	}

	producers, produceCtx := errgroup.WithContext(runCtx)
	for i := 0; i < cfg.NumProducers; i++ {
		producers.Go(func() error {
			for produceCtx.Err() == nil && consumeCtx.Err() == nil {
				msg := valueGenerator(int(msgIndex.Add(1) - 1))
				mu.Lock()
				target.Put(msg)
				mu.Unlock()
				produced.Add(1)
			}
			return nil
		})
	}

	produceErr := producers.Wait()
	close(drain)
	consumeErr := consumers.Wait()

	mu.Lock()
	remaining := target.Len()
	mu.Unlock()

	res := Result{
		Produced:  produced.Load(),
		Consumed:  consumed.Load(),
		Remaining: remaining,
		Elapsed:   time.Since(start),
	}
	return res, errors.Join(produceErr, consumeErr)
}
