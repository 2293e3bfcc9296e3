package condition

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitAsync starts Wait on c in a goroutine and returns a channel closed
// when Wait returns.
func waitAsync(c Condition) <-chan struct{} {
	done := make(chan struct{})
	started := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		close(started)
		_ = c.WaitContext(ctx)
		close(done)
	}()
	<-started
	// give the goroutine time to block
	time.Sleep(20 * time.Millisecond)
	return done
}

func closedWithin(ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}

func TestVariableNotifyWakesAllWaiters(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	var woke atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		ch := c.Signal()
		go func() {
			defer wg.Done()
			<-ch
			woke.Add(1)
		}()
	}
	c.Notify()
	wg.Wait()
	assert.Equal(t, int32(5), woke.Load())
}

func TestVariableSubscribersRunInOrder(t *testing.T) {
	c := New()
	var order []int
	c.Subscribe(func() { order = append(order, 1) })
	unsub := c.Subscribe(func() { order = append(order, 2) })
	c.Subscribe(func() { order = append(order, 3) })

	c.Notify()
	assert.Equal(t, []int{1, 2, 3}, order)

	unsub()
	unsub()
	order = nil
	c.Notify()
	assert.Equal(t, []int{1, 3}, order)
	assert.Equal(t, 2, c.Subscribers())
}

func TestZeroVariableIsUsable(t *testing.T) {
	var c Variable
	done := waitAsync(&c)
	c.Notify()
	assert.True(t, closedWithin(done, time.Second))
}

func TestWaitContextCancel(t *testing.T) {
	c := New()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.WaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetFiresOnAnyMember(t *testing.T) {
	a, b := New(), New()
	s := NewSet()
	s.Add(a)
	s.Add(b)
	s.Add(a)
	require.Equal(t, 2, s.Len())

	done := waitAsync(s)
	b.Notify()
	assert.True(t, closedWithin(done, time.Second))
}

func TestSetAddIsLiveForBlockedWaiter(t *testing.T) {
	s := NewSet()
	done := waitAsync(s)

	late := New()
	s.Add(late)
	late.Notify()
	assert.True(t, closedWithin(done, time.Second), "member added after Wait started must wake it")
}

func TestSetRemoveStopsContributing(t *testing.T) {
	a := New()
	s := NewSet()
	s.Add(a)
	s.Remove(a)
	s.Remove(New())
	assert.False(t, s.Contains(a))
	assert.Equal(t, 0, a.Subscribers())

	var fired atomic.Int32
	s.Subscribe(func() { fired.Add(1) })
	a.Notify()
	assert.Equal(t, int32(0), fired.Load())
}

func TestNestedSets(t *testing.T) {
	leaf := New()
	inner := NewSet()
	inner.Add(leaf)
	outer := NewSet()
	outer.Add(inner)
	outer.Add(outer)
	outer.Add(nil)
	assert.Equal(t, 1, outer.Len())

	var fired atomic.Int32
	outer.Subscribe(func() { fired.Add(1) })
	leaf.Notify()
	assert.Equal(t, int32(1), fired.Load())
}

func TestResetableSet(t *testing.T) {
	a := New()
	s := NewSet()
	s.SetResetable(true, false)
	s.Add(a)

	a.Notify()
	require.True(t, s.IsFired())

	// a remembered fire lets Wait return at once
	assert.True(t, closedWithin(waitAsync(s), time.Second))
	assert.True(t, s.IsFired())
	s.Reset()
	assert.False(t, s.IsFired())

	s.SetResetable(true, true)
	a.Notify()
	assert.True(t, closedWithin(waitAsync(s), time.Second))
	assert.False(t, s.IsFired(), "auto reset clears the fired state")
}
