package shared

import "slices"

// Sequence is a shared ordered container. Every method takes the ticket it
// needs for the duration of that single call only. Iteration and other
// composite operations must hold a ticket obtained from the embedded Object
// for as long as they run; Len called outside such a ticket is stale as
// soon as it returns.
type Sequence[T comparable] struct {
	*Object[[]T]
}

// NewSequence creates an empty shared sequence.
func NewSequence[T comparable]() *Sequence[T] {
	return &Sequence[T]{Object: NewObject[[]T](nil)}
}

// PushBack appends x.
func (s *Sequence[T]) PushBack(x T) {
	s.Write(func(v *[]T) { *v = append(*v, x) })
}

// PushFront inserts x at the front.
func (s *Sequence[T]) PushFront(x T) {
	s.Write(func(v *[]T) { *v = slices.Insert(*v, 0, x) })
}

// UniquePushBack appends x unless it is already contained. It reports
// whether x was added.
func (s *Sequence[T]) UniquePushBack(x T) bool {
	t := s.WriteTicket()
	defer t.Release()
	v := t.Get()
	if slices.Contains(*v, x) {
		t.SuppressNotify()
		return false
	}
	*v = append(*v, x)
	return true
}

// UniquePushFront inserts x at the front unless it is already contained.
func (s *Sequence[T]) UniquePushFront(x T) bool {
	t := s.WriteTicket()
	defer t.Release()
	v := t.Get()
	if slices.Contains(*v, x) {
		t.SuppressNotify()
		return false
	}
	*v = slices.Insert(*v, 0, x)
	return true
}

// PopBack removes and returns the last element. ok is false on an empty
// sequence.
func (s *Sequence[T]) PopBack() (x T, ok bool) {
	t := s.WriteTicket()
	defer t.Release()
	v := t.Get()
	if len(*v) == 0 {
		t.SuppressNotify()
		return x, false
	}
	x = (*v)[len(*v)-1]
	*v = (*v)[:len(*v)-1]
	return x, true
}

// Clear removes all elements.
func (s *Sequence[T]) Clear() {
	s.Write(func(v *[]T) { *v = nil })
}

// Len returns the number of elements.
func (s *Sequence[T]) Len() int {
	t := s.ReadTicket()
	defer t.Release()
	return len(t.Get())
}

// At returns the element at index i.
func (s *Sequence[T]) At(i int) (x T, ok bool) {
	t := s.ReadTicket()
	defer t.Release()
	v := t.Get()
	if i < 0 || i >= len(v) {
		return x, false
	}
	return v[i], true
}

// Remove deletes every occurrence of x and returns how many were removed.
// Nothing is notified when nothing was removed.
func (s *Sequence[T]) Remove(x T) int {
	t := s.WriteTicket()
	defer t.Release()
	v := t.Get()
	before := len(*v)
	*v = slices.DeleteFunc(*v, func(e T) bool { return e == x })
	n := before - len(*v)
	if n == 0 {
		t.SuppressNotify()
	}
	return n
}

// RemoveFunc deletes every element for which del returns true and returns
// how many were removed. Nothing is notified when nothing was removed.
func (s *Sequence[T]) RemoveFunc(del func(T) bool) int {
	t := s.WriteTicket()
	defer t.Release()
	v := t.Get()
	before := len(*v)
	*v = slices.DeleteFunc(*v, del)
	n := before - len(*v)
	if n == 0 {
		t.SuppressNotify()
	}
	return n
}

// Replace substitutes every occurrence of oldValue by newValue.
func (s *Sequence[T]) Replace(oldValue, newValue T) int {
	t := s.WriteTicket()
	defer t.Release()
	v := *t.Get()
	n := 0
	for i := range v {
		if v[i] == oldValue {
			v[i] = newValue
			n++
		}
	}
	if n == 0 {
		t.SuppressNotify()
	}
	return n
}

// Count returns the number of occurrences of x.
func (s *Sequence[T]) Count(x T) int {
	t := s.ReadTicket()
	defer t.Release()
	n := 0
	for _, e := range t.Get() {
		if e == x {
			n++
		}
	}
	return n
}

// Contains reports whether x is an element.
func (s *Sequence[T]) Contains(x T) bool {
	t := s.ReadTicket()
	defer t.Release()
	return slices.Contains(t.Get(), x)
}

// Snapshot returns a copy of the elements, safe to iterate without a ticket.
func (s *Sequence[T]) Snapshot() []T {
	t := s.ReadTicket()
	defer t.Release()
	return slices.Clone(t.Get())
}
