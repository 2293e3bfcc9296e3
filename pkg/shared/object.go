// Package shared provides ticket based access to values that are read and
// written from several goroutines at once.
//
// A value is wrapped in an Object. Access is granted through tickets: a
// ReadTicket holds the shared (read) side of a readers-writer lock, a
// WriteTicket holds the exclusive side. A ticket keeps its lock until Release
// is called, so the usual pattern is
//
//	t := obj.WriteTicket()
//	defer t.Release()
//	*t.Get() = newValue
//
// Read and Write wrap this pattern for single closures and release the lock
// on every exit path, including panics.
package shared

import (
	"sync"
)

// Notifier is anything that can be told that a value changed.
// condition.Variable and condition.Set satisfy it.
type Notifier interface {
	Notify()
}

// Object owns exactly one value of type T plus the lock guarding it.
type Object[T any] struct {
	mu    sync.RWMutex
	value T

	// notifier is fired after every released write ticket that did not
	// suppress notification
	notifierMu sync.RWMutex
	notifier   Notifier
}

// NewObject creates a shared object holding initial.
func NewObject[T any](initial T) *Object[T] {
	return &Object[T]{value: initial}
}

// SetChangeNotifier installs the notifier fired when a write ticket is
// released. Passing nil removes it.
func (o *Object[T]) SetChangeNotifier(n Notifier) {
	o.notifierMu.Lock()
	o.notifier = n
	o.notifierMu.Unlock()
}

func (o *Object[T]) changeNotifier() Notifier {
	o.notifierMu.RLock()
	defer o.notifierMu.RUnlock()
	return o.notifier
}

// ReadTicket blocks until no writer holds the object and returns a ticket
// granting shared read access. Any number of read tickets may be live.
func (o *Object[T]) ReadTicket() *ReadTicket[T] {
	o.mu.RLock()
	return &ReadTicket[T]{obj: o}
}

// WriteTicket blocks until no other ticket is live and returns a ticket
// granting exclusive access.
func (o *Object[T]) WriteTicket() *WriteTicket[T] {
	o.mu.Lock()
	return &WriteTicket[T]{obj: o}
}

// Read calls fn with the value while holding a read ticket.
func (o *Object[T]) Read(fn func(v T)) {
	t := o.ReadTicket()
	defer t.Release()
	fn(t.Get())
}

// Write calls fn with a pointer to the value while holding a write ticket.
// The change notifier fires after the ticket is released.
func (o *Object[T]) Write(fn func(v *T)) {
	t := o.WriteTicket()
	defer t.Release()
	fn(t.Get())
}

// Load returns a snapshot of the value.
func (o *Object[T]) Load() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Store replaces the value.
func (o *Object[T]) Store(v T) {
	t := o.WriteTicket()
	*t.Get() = v
	t.Release()
}

// ReadTicket grants shared access to the value of an Object.
type ReadTicket[T any] struct {
	obj  *Object[T]
	once sync.Once
}

// Get returns the guarded value. Reference types (slices, maps, pointers)
// must not be modified through a read ticket.
func (t *ReadTicket[T]) Get() T {
	return t.obj.value
}

// Release gives up the read lock. Calling it more than once is harmless.
func (t *ReadTicket[T]) Release() {
	t.once.Do(t.obj.mu.RUnlock)
}

// WriteTicket grants exclusive access to the value of an Object.
type WriteTicket[T any] struct {
	obj      *Object[T]
	once     sync.Once
	suppress bool
}

// Get returns a pointer to the guarded value. The pointer must not be
// retained after Release.
func (t *WriteTicket[T]) Get() *T {
	return &t.obj.value
}

// SuppressNotify prevents the change notifier from firing on Release.
// Used when a write turned out not to change anything.
func (t *WriteTicket[T]) SuppressNotify() {
	t.suppress = true
}

// Release gives up the write lock and fires the change notifier unless it
// was suppressed. Calling it more than once is harmless.
func (t *WriteTicket[T]) Release() {
	t.once.Do(func() {
		t.obj.mu.Unlock()
		if t.suppress {
			return
		}
		if n := t.obj.changeNotifier(); n != nil {
			n.Notify()
		}
	})
}
