package fibers

import (
	"sync/atomic"

	"fibernav/pkg/threading"
)

// Lengths computes the length of every fiber on a pool of threads workers.
// Each worker takes one contiguous block of fiber indices. threads may be
// threading.Automatic. The first worker failure is returned.
func (d *Dataset) Lengths(threads int, opts ...threading.Option) ([]float64, error) {
	out := make([]float64, d.Size())
	if len(out) == 0 {
		return out, nil
	}

	pool, err := threading.New(threads, func(index, total int, stop *atomic.Bool) error {
		chunk := (len(out) + total - 1) / total
		from := min(index*chunk, len(out))
		to := min(from+chunk, len(out))
		for i := from; i < to && !stop.Load(); i++ {
			out[i] = d.Length(i)
		}
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	var first atomic.Pointer[error]
	pool.SubscribeException(func(err error) {
		first.CompareAndSwap(nil, &err)
	})
	if err := pool.Run(); err != nil {
		return nil, err
	}
	pool.Wait()

	if e := first.Load(); e != nil {
		return nil, *e
	}
	return out, nil
}
