package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i5heu/GoMoreCollections/internal/testbench"
	"github.com/i5heu/GoMoreCollections/pkg/collection"
)

// progressWatchdog fails the test if no progress is reported for 15 seconds.
type progressWatchdog struct {
	t            *testing.T
	label        string
	lastProgress atomic.Int64
	done         chan struct{}
}

func newWatchdog(t *testing.T, label string) *progressWatchdog {
	wd := &progressWatchdog{
		t:     t,
		label: label,
		done:  make(chan struct{}),
	}
	wd.lastProgress.Store(time.Now().UnixNano())
	return wd
}

func (wd *progressWatchdog) Start() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if time.Since(time.Unix(0, wd.lastProgress.Load())) > 15*time.Second {
					wd.t.Errorf("No progress in the last 15 seconds (%s test likely stuck).", wd.label)
					return
				}
			case <-wd.done:
				return
			}
		}
	}()
}

func (wd *progressWatchdog) Progress() {
	wd.lastProgress.Store(time.Now().UnixNano())
}

func (wd *progressWatchdog) Stop() {
	close(wd.done)
}

// withAllImplementations runs fn once per benchmarked implementation, skipping
// those that lack any of the required features.
func withAllImplementations(t *testing.T, required []string, fn func(t *testing.T, impl Implementation)) {
	t.Helper()
	for _, impl := range getImplementations() {
		t.Run(impl.name, func(t *testing.T) {
			for _, feature := range required {
				if !slices.Contains(impl.features, feature) {
					t.Skipf("Skipping: missing feature %q", feature)
				}
			}
			fn(t, impl)
		})
	}
}

func intPtr(i int) *int { return &i }

func TestBasicFIFO(t *testing.T) {
	withAllImplementations(t, []string{"FIFO"}, func(t *testing.T, impl Implementation) {
		target := impl.newTarget()
		const n = 1024
		for i := 0; i < n; i++ {
			target.Put(intPtr(i))
		}
		for i := 0; i < n; i++ {
			v, err := target.Take()
			require.NoError(t, err)
			require.Equal(t, i, *v)
		}
	})
}

func TestBasicLIFO(t *testing.T) {
	withAllImplementations(t, []string{"LIFO"}, func(t *testing.T, impl Implementation) {
		target := impl.newTarget()
		for i := 0; i < 10; i++ {
			target.Put(intPtr(i))
		}
		for i := 9; i >= 0; i-- {
			v, err := target.Take()
			require.NoError(t, err)
			require.Equal(t, i, *v)
		}
	})
}

func TestEvictingKeepsNewest(t *testing.T) {
	withAllImplementations(t, []string{"Evicting"}, func(t *testing.T, impl Implementation) {
		target := impl.newTarget()
		const n = 5000
		for i := 0; i < n; i++ {
			target.Put(intPtr(i))
		}
		capacity := target.Len()
		require.Less(t, capacity, n)

		top, err := target.Take()
		require.NoError(t, err)
		assert.Equal(t, n-1, *top)
		for target.Len() > 0 {
			v, err := target.Take()
			require.NoError(t, err)
			require.GreaterOrEqual(t, *v, n-capacity)
		}
	})
}

func TestEmptyTake(t *testing.T) {
	withAllImplementations(t, nil, func(t *testing.T, impl Implementation) {
		target := impl.newTarget()
		v, err := target.Take()
		assert.Nil(t, v)
		assert.ErrorIs(t, err, collection.ErrInvalidOperation)

		target.Put(intPtr(42))
		v, err = target.Take()
		require.NoError(t, err)
		assert.Equal(t, 42, *v)
	})
}

func TestTimedRunAccounting(t *testing.T) {
	withAllImplementations(t, nil, func(t *testing.T, impl Implementation) {
		wd := newWatchdog(t, impl.name)
		wd.Start()
		defer wd.Stop()

		for _, cfg := range []testbench.Config{
			{NumProducers: 1, NumConsumers: 1},
			{NumProducers: 8, NumConsumers: 2},
			{NumProducers: 2, NumConsumers: 8},
		} {
			res, err := testbench.RunTimedTest(context.Background(), impl.newTarget(), cfg, 25*time.Millisecond, intPtr)
			require.NoError(t, err)
			wd.Progress()

			assert.Zero(t, res.Remaining, "%+v", cfg)
			assert.Equal(t, res.Produced, res.Consumed+res.Dropped(), "%+v", cfg)
			if !slices.Contains(impl.features, "Evicting") {
				assert.Zero(t, res.Dropped(), "%+v: unbounded containers never drop", cfg)
			}
		}
	})
}

func TestCPUSettings(t *testing.T) {
	assert.Equal(t, []int{4}, cpuSettings(4, 8))
	assert.Equal(t, []int{8}, cpuSettings(32, 8))
	assert.Equal(t, []int{1, 2, 4}, cpuSettings(0, 6))
}

func TestReportsRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "results.json")

	first := FullReport{SessionTime: "a", Benchmarks: []BenchmarkResult{{Implementation: "CircularQueue", Throughput: 10, Produced: 5, Consumed: 5}}}
	second := FullReport{SessionTime: "b", Benchmarks: []BenchmarkResult{{Implementation: "DropoutStack64", Throughput: 20, Produced: 10, Consumed: 6, Dropped: 4}}}

	require.NoError(t, appendReports(file, []FullReport{first}))
	require.NoError(t, appendReports(file, []FullReport{second}))

	got, err := loadReports(file)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SessionTime)
	assert.Equal(t, int64(4), got[1].Benchmarks[0].Dropped)

	require.NoError(t, outputMarkdownTable(file))
}

func TestMarkdownTableErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, outputMarkdownTable(filepath.Join(dir, "missing.json")))

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0644))
	assert.Error(t, outputMarkdownTable(empty))
}
