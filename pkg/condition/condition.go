// Package condition provides waitable change signals.
//
// A Variable wakes every goroutine blocked in Wait when Notify is called and
// runs subscribed callbacks synchronously on the notifying goroutine, in
// subscription order. Callbacks therefore must not try to take locks the
// notifying goroutine may already hold.
//
// A Set aggregates other conditions and fires whenever any of its members
// fires. Sets are conditions themselves and can be nested.
package condition

import (
	"context"
	"slices"
	"sync"
)

// Condition is implemented by Variable and Set.
type Condition interface {
	// Notify wakes all current waiters and runs the subscribed callbacks.
	Notify()

	// Wait blocks until the next Notify.
	Wait()

	// WaitContext blocks until the next Notify or until ctx is done.
	WaitContext(ctx context.Context) error

	// Subscribe registers fn to be called on every Notify. The returned
	// function removes the subscription.
	Subscribe(fn func()) (unsubscribe func())
}

type subscriber struct {
	id uint64
	fn func()
}

// Variable is a plain condition. The zero value is ready to use.
type Variable struct {
	mu     sync.Mutex
	signal chan struct{}
	subs   []subscriber
	nextID uint64
}

// New creates a condition variable.
func New() *Variable {
	return &Variable{signal: make(chan struct{})}
}

// Signal returns a channel closed by the next Notify, for use in select.
func (c *Variable) Signal() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.signal == nil {
		c.signal = make(chan struct{})
	}
	return c.signal
}

// Notify releases all waiters and calls the subscribers.
func (c *Variable) Notify() {
	c.mu.Lock()
	if c.signal != nil {
		close(c.signal)
	}
	c.signal = make(chan struct{})
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

// Wait blocks until the next Notify.
func (c *Variable) Wait() {
	<-c.Signal()
}

// WaitContext blocks until the next Notify or until ctx is done.
func (c *Variable) WaitContext(ctx context.Context) error {
	select {
	case <-c.Signal():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn. Subscribers run in the order they subscribed.
func (c *Variable) Subscribe(fn func()) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.subs = slices.DeleteFunc(c.subs, func(s subscriber) bool { return s.id == id })
			c.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered callbacks.
func (c *Variable) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
