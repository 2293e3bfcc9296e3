package threading

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agilira/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibernav/pkg/telemetry"
)

func code(t *testing.T, err error) string {
	t.Helper()
	ec, ok := err.(errors.ErrorCoder)
	require.True(t, ok, "error %v carries no code", err)
	return string(ec.ErrorCode())
}

func TestCompletionCount(t *testing.T) {
	for _, n := range []int{1, 2, 5, 100} {
		var counter atomic.Int64
		f, err := New(n, func(_, _ int, _ *atomic.Bool) error {
			counter.Add(1)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, StatusInitialized, f.Status())
		assert.False(t, f.Done())

		require.NoError(t, f.Run())
		f.Wait()

		assert.True(t, f.Done(), "n=%d", n)
		assert.Equal(t, int64(n), counter.Load(), "n=%d", n)
		assert.Equal(t, StatusFinished, f.Status())
	}
}

func TestWorkersSeeIndexAndTotal(t *testing.T) {
	const n = 6
	var seen [n]atomic.Int32
	var totals atomic.Int32
	f, err := New(n, func(index, total int, _ *atomic.Bool) error {
		seen[index].Add(1)
		if total == n {
			totals.Add(1)
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, f.Run())
	f.Wait()

	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load(), "index %d", i)
	}
	assert.Equal(t, int32(n), totals.Load())
}

func TestRunIsRepeatable(t *testing.T) {
	var counter atomic.Int64
	f, err := New(3, func(_, _ int, _ *atomic.Bool) error {
		counter.Add(1)
		return nil
	})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		require.NoError(t, f.Run())
		f.Wait()
		assert.True(t, f.Done())
		assert.Equal(t, int64(3*i), counter.Load())
	}
}

func TestStopAborts(t *testing.T) {
	release := make(chan struct{})
	f, err := New(4, func(_, _ int, stop *atomic.Bool) error {
		<-release
		for !stop.Load() {
			time.Sleep(time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, f.Run())
	assert.Equal(t, StatusRunning, f.Status())
	assert.Equal(t, ErrCodeAlreadyRunning, code(t, f.Run()))

	f.Stop()
	assert.Equal(t, StatusStopRequested, f.Status())
	close(release)
	f.Wait()

	assert.Equal(t, StatusAborted, f.Status())
	assert.True(t, f.Done())
}

func TestDoneConditionFires(t *testing.T) {
	gate := make(chan struct{})
	f, err := New(3, func(_, _ int, _ *atomic.Bool) error {
		<-gate
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	waited := make(chan error, 1)
	require.NoError(t, f.Run())
	go func() { waited <- f.DoneCondition().WaitContext(ctx) }()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	require.NoError(t, <-waited)
	assert.Equal(t, StatusFinished, f.Status())
}

func TestExceptionsAreForwarded(t *testing.T) {
	boom := stderrors.New("boom")
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg, "test")

	f, err := New(7, func(index, _ int, _ *atomic.Bool) error {
		if index == 3 {
			panic("bad worker")
		}
		return boom
	}, WithMetrics(m))
	require.NoError(t, err)

	var count, panics atomic.Int32
	var doneAtHandler atomic.Bool
	f.SubscribeException(func(err error) {
		count.Add(1)
		if f.Done() {
			doneAtHandler.Store(true)
		}
		if ec, ok := err.(errors.ErrorCoder); ok && string(ec.ErrorCode()) == ErrCodeWorkerPanic {
			panics.Add(1)
		}
	})

	require.NoError(t, f.Run())
	f.Wait()

	assert.Equal(t, int32(7), count.Load())
	assert.Equal(t, int32(1), panics.Load())
	assert.False(t, doneAtHandler.Load(), "handlers run before the pool counts the worker as done")
	assert.Equal(t, StatusAborted, f.Status())
	assert.True(t, f.Done())
}

func TestNoFunction(t *testing.T) {
	_, err := New(2, nil)
	assert.Equal(t, ErrCodeNoFunction, code(t, err))
	_, err = NewWorkerThread(nil, 0, 1)
	assert.Equal(t, ErrCodeNoFunction, code(t, err))
}

func TestAutoThreads(t *testing.T) {
	f, err := New(Automatic, func(_, _ int, _ *atomic.Bool) error { return nil })
	require.NoError(t, err)
	n := f.Threads()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 1024)
	assert.Zero(t, n&(n-1), "automatic thread counts are powers of two")
	assert.Equal(t, AutoThreads(), n)
}

func TestWorkerThreadLifecycle(t *testing.T) {
	gate := make(chan struct{})
	w, err := NewWorkerThread(func(_, _ int, _ *atomic.Bool) error {
		<-gate
		return nil
	}, 0, 1)
	require.NoError(t, err)

	w.Wait()
	assert.False(t, w.Finished())

	var done atomic.Bool
	w.SubscribeDone(func() { done.Store(true) })
	require.NoError(t, w.Run())
	assert.Equal(t, ErrCodeAlreadyRunning, code(t, w.Run()))

	w.RequestStop()
	assert.True(t, w.StopRequested())
	close(gate)
	w.Wait()
	assert.True(t, w.Finished())
	assert.True(t, done.Load())
}
