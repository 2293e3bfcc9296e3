package shared

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	n atomic.Int32
}

func (c *countingNotifier) Notify() { c.n.Add(1) }

// TestWriteTicketExcludesReaders holds a write ticket for a while and checks
// that a concurrent reader only gets its ticket after the release.
func TestWriteTicketExcludesReaders(t *testing.T) {
	obj := NewObject(0)

	w := obj.WriteTicket()
	*w.Get() = 42

	var acquired atomic.Bool
	var seen atomic.Int64
	done := make(chan struct{})
	go func() {
		r := obj.ReadTicket()
		acquired.Store(true)
		seen.Store(int64(r.Get()))
		r.Release()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, acquired.Load(), "reader must block while a write ticket is live")

	w.Release()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader never acquired its ticket")
	}
	assert.Equal(t, int64(42), seen.Load())
}

func TestWriteTicketExcludesWriters(t *testing.T) {
	obj := NewObject(0)
	w := obj.WriteTicket()

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		w2 := obj.WriteTicket()
		acquired.Store(true)
		w2.Release()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, acquired.Load())
	w.Release()
	<-done
	assert.True(t, acquired.Load())
}

func TestReadTicketsAreShared(t *testing.T) {
	obj := NewObject("value")
	r1 := obj.ReadTicket()
	defer r1.Release()

	got := make(chan string, 1)
	go func() {
		r2 := obj.ReadTicket()
		defer r2.Release()
		got <- r2.Get()
	}()

	select {
	case v := <-got:
		assert.Equal(t, "value", v)
	case <-time.After(2 * time.Second):
		t.Fatal("second reader blocked behind the first one")
	}
}

func TestTicketReleaseOnPanic(t *testing.T) {
	obj := NewObject(1)

	func() {
		defer func() { _ = recover() }()
		obj.Write(func(v *int) {
			*v = 2
			panic("boom")
		})
	}()

	// the lock must be free again
	done := make(chan int, 1)
	go func() { done <- obj.Load() }()
	select {
	case v := <-done:
		assert.Equal(t, 2, v)
	case <-time.After(2 * time.Second):
		t.Fatal("write lock leaked after panic")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	obj := NewObject(0)
	n := &countingNotifier{}
	obj.SetChangeNotifier(n)

	w := obj.WriteTicket()
	w.Release()
	w.Release()
	assert.Equal(t, int32(1), n.n.Load())

	r := obj.ReadTicket()
	r.Release()
	r.Release()
	obj.Store(3)
	assert.Equal(t, 3, obj.Load())
}

func TestChangeNotifier(t *testing.T) {
	obj := NewObject(0)
	n := &countingNotifier{}
	obj.SetChangeNotifier(n)

	obj.Store(1)
	assert.Equal(t, int32(1), n.n.Load())

	w := obj.WriteTicket()
	w.SuppressNotify()
	w.Release()
	assert.Equal(t, int32(1), n.n.Load(), "suppressed write must not notify")

	obj.Read(func(int) {})
	assert.Equal(t, int32(1), n.n.Load(), "reads never notify")
}

func TestConcurrentWriters(t *testing.T) {
	obj := NewObject(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				obj.Write(func(v *int) { *v++ })
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 5000, obj.Load())
}
