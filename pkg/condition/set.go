package condition

import (
	"context"
	"slices"
	"sync"

	"fibernav/pkg/shared"
)

type member struct {
	cond        Condition
	unsubscribe func()
}

// Set fires whenever one of its member conditions fires. Membership changes
// take effect immediately, also for goroutines already blocked in Wait,
// because waiting happens on the set's own variable which every member
// notifies.
type Set struct {
	own     *Variable
	members *shared.Object[[]member]

	stateMu   sync.Mutex
	resetable bool
	autoReset bool
	fired     bool
}

// NewSet creates an empty condition set.
func NewSet() *Set {
	return &Set{
		own:     New(),
		members: shared.NewObject[[]member](nil),
	}
}

// Add makes the set fire whenever c fires. Adding nil, the set itself or a
// condition that is already a member does nothing.
func (s *Set) Add(c Condition) {
	if c == nil || c == Condition(s) {
		return
	}
	t := s.members.WriteTicket()
	defer t.Release()
	for _, m := range *t.Get() {
		if m.cond == c {
			return
		}
	}
	unsub := c.Subscribe(s.Notify)
	*t.Get() = append(*t.Get(), member{cond: c, unsubscribe: unsub})
}

// Remove stops c from contributing to the set. Unknown conditions are ignored.
func (s *Set) Remove(c Condition) {
	t := s.members.WriteTicket()
	defer t.Release()
	ms := t.Get()
	*ms = slices.DeleteFunc(*ms, func(m member) bool {
		if m.cond == c {
			m.unsubscribe()
			return true
		}
		return false
	})
}

// Contains reports whether c is a member.
func (s *Set) Contains(c Condition) bool {
	t := s.members.ReadTicket()
	defer t.Release()
	for _, m := range t.Get() {
		if m.cond == c {
			return true
		}
	}
	return false
}

// Len returns the number of member conditions.
func (s *Set) Len() int {
	t := s.members.ReadTicket()
	defer t.Release()
	return len(t.Get())
}

// SetResetable switches the set into a mode where a fire is remembered until
// Reset: Wait returns immediately while the set is fired. With autoReset
// every returning Wait clears the fired state.
func (s *Set) SetResetable(resetable, autoReset bool) {
	s.stateMu.Lock()
	s.resetable = resetable
	s.autoReset = autoReset
	s.fired = false
	s.stateMu.Unlock()
}

// IsFired reports whether the set fired since the last Reset.
func (s *Set) IsFired() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.fired
}

// Reset clears the fired state.
func (s *Set) Reset() {
	s.stateMu.Lock()
	s.fired = false
	s.stateMu.Unlock()
}

// Notify fires the set directly.
func (s *Set) Notify() {
	s.stateMu.Lock()
	s.fired = true
	s.stateMu.Unlock()
	s.own.Notify()
}

// waitChannel returns nil when a remembered fire lets Wait return at once.
func (s *Set) waitChannel() <-chan struct{} {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	ch := s.own.Signal()
	if s.resetable && s.fired {
		if s.autoReset {
			s.fired = false
		}
		return nil
	}
	return ch
}

func (s *Set) afterWake() {
	s.stateMu.Lock()
	if s.resetable && s.autoReset {
		s.fired = false
	}
	s.stateMu.Unlock()
}

// Wait blocks until any member fires.
func (s *Set) Wait() {
	ch := s.waitChannel()
	if ch == nil {
		return
	}
	<-ch
	s.afterWake()
}

// WaitContext blocks until any member fires or ctx is done.
func (s *Set) WaitContext(ctx context.Context) error {
	ch := s.waitChannel()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		s.afterWake()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn to run whenever the set fires.
func (s *Set) Subscribe(fn func()) func() {
	return s.own.Subscribe(fn)
}
