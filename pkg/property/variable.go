package property

import (
	"sync/atomic"

	"fibernav/pkg/condition"
	"fibernav/pkg/shared"
)

// codec describes how a value type behaves inside a Variable.
type codec[T any] struct {
	kind   Kind
	equal  func(a, b T) bool
	format func(v T) string
	parse  func(old T, s string) (T, error)
}

type flagState[T any] struct {
	value   T
	changed bool
}

// Variable is a leaf property holding a value of type T.
//
// Set only stores values every constraint accepts. A constraint change can
// leave the stored value invalid; EnsureValidity repairs that.
type Variable[T any] struct {
	base

	codec codec[T]
	value *shared.Object[flagState[T]]

	// valueChange fires after every stored value change.
	valueChange *condition.Variable

	constraints      *shared.Sequence[Constraint[T]]
	constraintChange *condition.Variable

	// external is an optional caller supplied condition notified on value
	// changes.
	external condition.Condition

	notYetSet atomic.Bool
}

// Typed leaf properties.
type (
	Int         = Variable[int32]
	Double      = Variable[float64]
	Bool        = Variable[bool]
	String      = Variable[string]
	PathVar     = Variable[Path]
	Selection   = Variable[ItemSelector]
	PositionVar = Variable[Position]
	ColorVar    = Variable[Color]
	TriggerVar  = Variable[Trigger]
)

// Option configures a Variable at construction.
type Option func(*options)

type options struct {
	external  condition.Condition
	notifiers []func(Property)
	hidden    bool
	purpose   Purpose
}

// WithCondition makes the variable also notify c whenever its value changes.
func WithCondition(c condition.Condition) Option {
	return func(o *options) { o.external = c }
}

// WithNotifier registers fn to be called with the property after each value
// change. fn runs synchronously on the goroutine that called Set.
func WithNotifier(fn func(Property)) Option {
	return func(o *options) { o.notifiers = append(o.notifiers, fn) }
}

// WithHidden creates the property hidden.
func WithHidden() Option {
	return func(o *options) { o.hidden = true }
}

// WithPurpose sets the initial purpose.
func WithPurpose(p Purpose) Option {
	return func(o *options) { o.purpose = p }
}

func newVariable[T any](name, description string, initial T, c codec[T], opts ...Option) (*Variable[T], error) {
	o := options{purpose: PurposeParameter}
	for _, opt := range opts {
		opt(&o)
	}

	v := &Variable[T]{codec: c}
	if err := v.base.init(name, description, c.kind); err != nil {
		return nil, err
	}
	v.hidden = o.hidden
	v.purpose = o.purpose
	v.external = o.external
	v.value = shared.NewObject(flagState[T]{value: initial, changed: true})
	v.wire()
	v.notYetSet.Store(true)

	for _, fn := range o.notifiers {
		v.valueChange.Subscribe(func() { fn(v) })
	}
	return v, nil
}

// wire creates the change conditions and hooks them into the update set.
func (p *Variable[T]) wire() {
	p.valueChange = condition.New()
	p.constraintChange = condition.New()
	if p.constraints == nil {
		p.constraints = shared.NewSequence[Constraint[T]]()
	}
	p.constraints.SetChangeNotifier(p.constraintChange)
	p.update.Add(p.valueChange)
	p.update.Add(p.constraintChange)
}

// Get returns a snapshot of the current value.
func (p *Variable[T]) Get() T {
	return p.value.Load().value
}

// Changed reports whether the value changed since the flag was last reset.
// Polling consumers pass reset=true to consume the change.
func (p *Variable[T]) Changed(reset bool) bool {
	if !reset {
		return p.value.Load().changed
	}
	t := p.value.WriteTicket()
	defer t.Release()
	changed := t.Get().changed
	t.Get().changed = false
	return changed
}

// Accept reports whether every constraint accepts v. Nothing is modified.
func (p *Variable[T]) Accept(v T) bool {
	t := p.constraints.ReadTicket()
	defer t.Release()
	ok := true
	for _, c := range t.Get() {
		ok = c.Accept(p, v) && ok
	}
	return ok
}

// IsValid reports whether the stored value satisfies the current constraints.
func (p *Variable[T]) IsValid() bool {
	return p.Accept(p.Get())
}

// Set stores v if all constraints accept it and fires the update condition.
// Setting the current value again succeeds without notification as long as
// the constraints accept it. A rejected value leaves the property untouched
// and returns false.
func (p *Variable[T]) Set(v T) bool {
	p.notYetSet.Store(false)
	return p.set(v)
}

func (p *Variable[T]) set(v T) bool {
	if !p.Accept(v) {
		return false
	}
	if p.codec.equal(p.Get(), v) {
		return true
	}

	t := p.value.WriteTicket()
	t.Get().value = v
	t.Get().changed = true
	t.Release()

	if p.external != nil {
		p.external.Notify()
	}
	p.valueChange.Notify()
	return true
}

// SetRecommendedValue sets v only as long as nobody called Set before. It
// lets creators refine defaults without overwriting user choices.
func (p *Variable[T]) SetRecommendedValue(v T) bool {
	if !p.notYetSet.Load() {
		return false
	}
	return p.set(v)
}

// EnsureValidity repairs a value invalidated by a constraint change. If the
// stored value is still accepted nothing happens and true is returned.
// Otherwise v is stored under the same rules as Set; when v is rejected too
// the invalid value stays and false is returned.
func (p *Variable[T]) EnsureValidity(v T) bool {
	if p.IsValid() {
		return true
	}
	return p.set(v)
}

// ValueChangeCondition fires after each value change.
func (p *Variable[T]) ValueChangeCondition() condition.Condition {
	return p.valueChange
}

// ConstraintsChangeCondition fires after each constraint change.
func (p *Variable[T]) ConstraintsChangeCondition() condition.Condition {
	return p.constraintChange
}

// AsString formats the current value.
func (p *Variable[T]) AsString() string {
	return p.codec.format(p.Get())
}

// SetAsString parses s and sets the result. Unparsable input returns false.
func (p *Variable[T]) SetAsString(s string) bool {
	v, err := p.codec.parse(p.Get(), s)
	if err != nil {
		return false
	}
	return p.Set(v)
}

// SetFrom copies the value of other when it has the same value type.
func (p *Variable[T]) SetFrom(other Property) bool {
	o, ok := other.(*Variable[T])
	if !ok {
		return false
	}
	return p.Set(o.Get())
}

// Clone deep-copies value and constraints. The clone gets new conditions and
// its own changed flag; notifiers and external conditions are not copied.
func (p *Variable[T]) Clone() Property {
	return p.CloneVariable()
}

// CloneVariable is Clone with the concrete type preserved.
func (p *Variable[T]) CloneVariable() *Variable[T] {
	c := &Variable[T]{codec: p.codec}
	c.base.copyFrom(&p.base)
	c.value = shared.NewObject(p.value.Load())
	c.notYetSet.Store(p.notYetSet.Load())

	c.constraints = shared.NewSequence[Constraint[T]]()
	cs := c.constraints.WriteTicket()
	for _, con := range p.Constraints() {
		*cs.Get() = append(*cs.Get(), con.Clone())
	}
	cs.SuppressNotify()
	cs.Release()

	c.wire()
	return c
}
