package threading

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"

	"fibernav/pkg/condition"
	"fibernav/pkg/shared"
	"fibernav/pkg/telemetry"
)

// Status is the life cycle state of a ThreadedFunction.
type Status int

const (
	StatusInitialized Status = iota
	StatusRunning
	// StatusStopRequested means a stop was requested or a worker failed and
	// not all workers returned yet.
	StatusStopRequested
	// StatusAborted means at least one worker stopped early or failed.
	StatusAborted
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusInitialized:
		return "INITIALIZED"
	case StatusRunning:
		return "RUNNING"
	case StatusStopRequested:
		return "STOP_REQUESTED"
	case StatusAborted:
		return "ABORTED"
	case StatusFinished:
		return "FINISHED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Automatic lets New pick the number of threads.
const Automatic = 0

const maxAutoThreads = 1024

// AutoThreads doubles from one while the count stays below half the CPUs.
func AutoThreads() int {
	n := 1
	for n < runtime.NumCPU()/2 && n < maxAutoThreads {
		n *= 2
	}
	return n
}

// Option configures a ThreadedFunction.
type Option func(*ThreadedFunction)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *ThreadedFunction) { f.log = l }
}

// WithMetrics records runs and failures.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(f *ThreadedFunction) { f.metrics = m }
}

// ThreadedFunction runs one Func on a fixed number of workers.
type ThreadedFunction struct {
	threads []*WorkerThread
	log     *slog.Logger
	metrics *telemetry.Metrics

	status    *shared.Object[Status]
	completed *shared.Object[int]
	done      *condition.Variable
	handlers  *shared.Object[[]func(error)]
	startedAt *shared.Object[time.Time]
}

// New creates a pool of n workers for fn. n == Automatic chooses
// AutoThreads().
func New(n int, fn Func, opts ...Option) (*ThreadedFunction, error) {
	if fn == nil {
		return nil, errors.New(ErrCodeNoFunction, "no valid thread function")
	}
	if n <= Automatic {
		n = AutoThreads()
	}

	f := &ThreadedFunction{
		log:       slog.Default(),
		status:    shared.NewObject(StatusInitialized),
		completed: shared.NewObject(0),
		done:      condition.New(),
		handlers:  shared.NewObject[[]func(error)](nil),
		startedAt: shared.NewObject(time.Time{}),
	}
	for _, opt := range opts {
		opt(f)
	}

	for k := 0; k < n; k++ {
		w, err := NewWorkerThread(fn, k, n)
		if err != nil {
			return nil, err
		}
		w.SubscribeException(f.handleException)
		w.SubscribeDone(f.handleDone)
		f.threads = append(f.threads, w)
	}
	return f, nil
}

// Threads returns the number of workers.
func (f *ThreadedFunction) Threads() int { return len(f.threads) }

// Run resets the completion counter and starts all workers. A pool can be
// run again once the previous run is done. Run must not be called from a
// done or exception subscriber.
func (f *ThreadedFunction) Run() error {
	st := f.status.WriteTicket()
	if s := *st.Get(); s == StatusRunning || s == StatusStopRequested {
		st.Release()
		return errors.New(ErrCodeAlreadyRunning, "threaded function is still running")
	}
	f.completed.Store(0)
	*st.Get() = StatusRunning
	st.Release()

	f.startedAt.Store(timecache.CachedTime())
	f.metrics.PoolRun()
	f.log.Debug("starting threaded function", "threads", len(f.threads))

	for _, w := range f.threads {
		// The last worker of the previous run may still be unwinding.
		w.Wait()
		if err := w.Run(); err != nil {
			return err
		}
	}
	return nil
}

// Stop asks every worker to stop and returns immediately.
func (f *ThreadedFunction) Stop() {
	f.status.Write(func(s *Status) {
		if *s == StatusRunning {
			*s = StatusStopRequested
		}
	})
	for _, w := range f.threads {
		w.RequestStop()
	}
}

// Wait blocks until every worker returned.
func (f *ThreadedFunction) Wait() {
	for _, w := range f.threads {
		w.Wait()
	}
}

// Done reports whether all workers of the current run returned.
func (f *ThreadedFunction) Done() bool {
	return f.completed.Load() == len(f.threads)
}

// Status returns the current state.
func (f *ThreadedFunction) Status() Status { return f.status.Load() }

// StartedAt returns when the last run was started.
func (f *ThreadedFunction) StartedAt() time.Time { return f.startedAt.Load() }

// DoneCondition fires when the last worker of a run returned.
func (f *ThreadedFunction) DoneCondition() condition.Condition { return f.done }

// SubscribeException registers fn to receive every worker error. fn runs on
// the failing worker's goroutine before that worker counts as done.
func (f *ThreadedFunction) SubscribeException(fn func(error)) {
	f.handlers.Write(func(h *[]func(error)) { *h = append(*h, fn) })
}

func (f *ThreadedFunction) handleException(err error) {
	f.status.Write(func(s *Status) {
		if *s == StatusRunning {
			*s = StatusStopRequested
		}
	})
	f.metrics.WorkerFailed()
	f.log.Warn("worker failed", "error", err)

	for _, h := range f.handlers.Load() {
		h(err)
	}
}

func (f *ThreadedFunction) handleDone() {
	t := f.completed.WriteTicket()
	*t.Get()++
	k := *t.Get()
	t.Release()

	if k != len(f.threads) {
		return
	}
	f.status.Write(func(s *Status) {
		switch *s {
		case StatusRunning:
			*s = StatusFinished
		case StatusStopRequested:
			*s = StatusAborted
		}
	})
	f.log.Debug("threaded function done", "status", f.Status().String())
	f.done.Notify()
}
