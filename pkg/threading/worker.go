// Package threading runs a function on a pool of goroutines. Every worker
// gets its index, the pool size and a stop flag and decides on its own share
// of the work.
package threading

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-errors"
)

// Error codes raised by this package.
const (
	ErrCodeNoFunction     = "THREADING_NO_FUNCTION"
	ErrCodeAlreadyRunning = "THREADING_ALREADY_RUNNING"
	ErrCodeWorkerPanic    = "THREADING_WORKER_PANIC"
)

// Func is the work executed by every worker. stop is set when the caller
// requests a stop; long running functions poll it and return early.
type Func func(index, total int, stop *atomic.Bool) error

// WorkerThread runs a Func once per Run on its own goroutine.
type WorkerThread struct {
	fn    Func
	index int
	total int
	stop  atomic.Bool

	mu       sync.Mutex
	finished chan struct{}
	onDone   []func()
	onError  []func(error)
}

// NewWorkerThread creates a worker that will call fn with index and total.
func NewWorkerThread(fn Func, index, total int) (*WorkerThread, error) {
	if fn == nil {
		return nil, errors.New(ErrCodeNoFunction, "no valid thread function")
	}
	return &WorkerThread{fn: fn, index: index, total: total}, nil
}

// SubscribeDone registers fn to run on the worker goroutine after each call
// returned.
func (w *WorkerThread) SubscribeDone(fn func()) {
	w.mu.Lock()
	w.onDone = append(w.onDone, fn)
	w.mu.Unlock()
}

// SubscribeException registers fn to receive errors and recovered panics.
// It runs on the worker goroutine before the done subscribers.
func (w *WorkerThread) SubscribeException(fn func(error)) {
	w.mu.Lock()
	w.onError = append(w.onError, fn)
	w.mu.Unlock()
}

// Run starts the worker. It fails while a previous run is still active.
func (w *WorkerThread) Run() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished != nil {
		select {
		case <-w.finished:
		default:
			return errors.New(ErrCodeAlreadyRunning,
				fmt.Sprintf("worker %d is still running", w.index))
		}
	}
	w.stop.Store(false)
	done := make(chan struct{})
	w.finished = done
	onDone := append([]func(){}, w.onDone...)
	onError := append([]func(error){}, w.onError...)

	go func() {
		defer close(done)
		if err := w.call(); err != nil {
			for _, h := range onError {
				h(err)
			}
		}
		for _, h := range onDone {
			h()
		}
	}()
	return nil
}

func (w *WorkerThread) call() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(ErrCodeWorkerPanic,
				fmt.Sprintf("worker %d of %d panicked: %v", w.index, w.total, r))
		}
	}()
	return w.fn(w.index, w.total, &w.stop)
}

// RequestStop sets the stop flag and returns immediately.
func (w *WorkerThread) RequestStop() { w.stop.Store(true) }

// StopRequested reports whether RequestStop was called during this run.
func (w *WorkerThread) StopRequested() bool { return w.stop.Load() }

// Wait blocks until the current run finished. It returns at once if the
// worker never ran.
func (w *WorkerThread) Wait() {
	w.mu.Lock()
	done := w.finished
	w.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Finished reports whether the worker ran and returned.
func (w *WorkerThread) Finished() bool {
	w.mu.Lock()
	done := w.finished
	w.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return true
	default:
		return false
	}
}
