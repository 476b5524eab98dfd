package testbench

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/GoMoreCollections/pkg/circularqueue"
	"github.com/i5heu/GoMoreCollections/pkg/dropoutstack"
)

func intGen(i int) int { return i }

func TestRunTimedTestQueueLosesNothing(t *testing.T) {
	target := QueueTarget[int]{circularqueue.New[int]()}
	res, err := RunTimedTest[int](context.Background(), target, Config{NumProducers: 4, NumConsumers: 4}, 50*time.Millisecond, intGen)
	require.NoError(t, err)

	assert.Positive(t, res.Produced)
	assert.Equal(t, res.Produced, res.Consumed)
	assert.Zero(t, res.Remaining)
	assert.Zero(t, res.Dropped())
	assert.GreaterOrEqual(t, res.Elapsed, 50*time.Millisecond)
}

func TestRunTimedTestRotatingQueue(t *testing.T) {
	target := RotatingQueueTarget[int]{circularqueue.New[int]()}
	res, err := RunTimedTest[int](context.Background(), target, Config{NumProducers: 2, NumConsumers: 2}, 30*time.Millisecond, intGen)
	require.NoError(t, err)
	assert.Equal(t, res.Produced, res.Consumed)
	assert.Zero(t, res.Dropped())
}

func TestRunTimedTestStackAccounting(t *testing.T) {
	s, err := dropoutstack.New[int](8)
	require.NoError(t, err)

	// Producers only: everything past the capacity is evicted.
	res, err := RunTimedTest[int](context.Background(), StackTarget[int]{s}, Config{NumProducers: 2}, 20*time.Millisecond, intGen)
	require.NoError(t, err)
	assert.Zero(t, res.Consumed)
	assert.Equal(t, min(int(res.Produced), 8), res.Remaining)
	assert.Equal(t, res.Produced-int64(res.Remaining), res.Dropped())

	s.Clear()
	res, err = RunTimedTest[int](context.Background(), StackTarget[int]{s}, Config{NumProducers: 4, NumConsumers: 2}, 30*time.Millisecond, intGen)
	require.NoError(t, err)
	assert.Zero(t, res.Remaining, "consumers drain after the window")
	assert.Equal(t, res.Produced, res.Consumed+res.Dropped())
}

// failingTarget fails every Take with an error that is not "empty".
type failingTarget struct {
	mu  sync.Mutex
	err error
}

func (f *failingTarget) Put(int)               {}
func (f *failingTarget) Take() (int, error)    { return 0, f.err }
func (f *failingTarget) Len() int              { return 0 }
func (f *failingTarget) SyncRoot() *sync.Mutex { return &f.mu }

func TestRunTimedTestPropagatesTakeErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := RunTimedTest[int](context.Background(), &failingTarget{err: boom}, Config{NumProducers: 1, NumConsumers: 1}, time.Second, intGen)
	assert.ErrorIs(t, err, boom)
}

func TestRunTimedTestStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := QueueTarget[int]{circularqueue.New[int]()}
	start := time.Now()
	_, err := RunTimedTest[int](ctx, target, Config{NumProducers: 1, NumConsumers: 1}, time.Minute, intGen)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
