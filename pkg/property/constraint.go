package property

import (
	"cmp"
	"os"
	"reflect"
	"slices"
)

// ConstraintKind tags a constraint so it can be looked up, replaced and
// removed by kind.
type ConstraintKind int

const (
	ConstraintUnknown ConstraintKind = iota
	ConstraintMin
	ConstraintMax
	ConstraintNotEmpty
	ConstraintPathExists
	ConstraintIsDirectory
	ConstraintSelectOnlyOne
	ConstraintIsValid
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintMin:
		return "MIN"
	case ConstraintMax:
		return "MAX"
	case ConstraintNotEmpty:
		return "NOTEMPTY"
	case ConstraintPathExists:
		return "PATHEXISTS"
	case ConstraintIsDirectory:
		return "ISDIRECTORY"
	case ConstraintSelectOnlyOne:
		return "SELECTONLYONE"
	case ConstraintIsValid:
		return "ISVALID"
	default:
		return "UNKNOWN"
	}
}

// Constraint restricts the values a Variable accepts.
type Constraint[T any] interface {
	Kind() ConstraintKind
	Accept(p *Variable[T], v T) bool
	// Clone returns an independent copy keeping thresholds and state.
	Clone() Constraint[T]
}

// AddConstraint appends c. The update condition fires.
func (p *Variable[T]) AddConstraint(c Constraint[T]) {
	if c == nil {
		return
	}
	p.constraints.PushBack(c)
}

// ReplaceConstraint substitutes the first constraint of the given kind by c.
// Without such a constraint c is appended. The update condition fires in
// both cases.
func (p *Variable[T]) ReplaceConstraint(c Constraint[T], kind ConstraintKind) {
	if c == nil {
		return
	}
	t := p.constraints.WriteTicket()
	defer t.Release()
	cs := t.Get()
	for i, old := range *cs {
		if old.Kind() == kind {
			(*cs)[i] = c
			return
		}
	}
	*cs = append(*cs, c)
}

// RemoveConstraintKind removes all constraints of the given kind. The update
// condition only fires when something was removed.
func (p *Variable[T]) RemoveConstraintKind(kind ConstraintKind) {
	t := p.constraints.WriteTicket()
	defer t.Release()
	cs := t.Get()
	before := len(*cs)
	*cs = slices.DeleteFunc(*cs, func(c Constraint[T]) bool { return c.Kind() == kind })
	if len(*cs) == before {
		t.SuppressNotify()
	}
}

// RemoveConstraint removes c by identity. The update condition only fires
// when c was present. Constraints whose values cannot be compared (value
// types holding slices, maps or funcs) are never matched; remove those by
// kind.
func (p *Variable[T]) RemoveConstraint(c Constraint[T]) {
	if c == nil {
		return
	}
	p.constraints.RemoveFunc(func(e Constraint[T]) bool { return sameConstraint(e, c) })
}

func sameConstraint[T any](a, b Constraint[T]) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// CountConstraint returns the number of constraints of the given kind.
func (p *Variable[T]) CountConstraint(kind ConstraintKind) int {
	t := p.constraints.ReadTicket()
	defer t.Release()
	n := 0
	for _, c := range t.Get() {
		if c.Kind() == kind {
			n++
		}
	}
	return n
}

// FirstConstraint returns the first constraint of the given kind or nil.
func (p *Variable[T]) FirstConstraint(kind ConstraintKind) Constraint[T] {
	t := p.constraints.ReadTicket()
	defer t.Release()
	for _, c := range t.Get() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// Constraints returns a snapshot of all constraints in order.
func (p *Variable[T]) Constraints() []Constraint[T] {
	return p.constraints.Snapshot()
}

// MinConstraint accepts values not below a threshold.
type MinConstraint[T cmp.Ordered] struct {
	min T
}

// NewMin creates a MIN constraint.
func NewMin[T cmp.Ordered](min T) *MinConstraint[T] {
	return &MinConstraint[T]{min: min}
}

func (c *MinConstraint[T]) Kind() ConstraintKind { return ConstraintMin }

func (c *MinConstraint[T]) Accept(_ *Variable[T], v T) bool { return v >= c.min }

func (c *MinConstraint[T]) Clone() Constraint[T] { return &MinConstraint[T]{min: c.min} }

// Value returns the threshold.
func (c *MinConstraint[T]) Value() T { return c.min }

// MaxConstraint accepts values not above a threshold.
type MaxConstraint[T cmp.Ordered] struct {
	max T
}

// NewMax creates a MAX constraint.
func NewMax[T cmp.Ordered](max T) *MaxConstraint[T] {
	return &MaxConstraint[T]{max: max}
}

func (c *MaxConstraint[T]) Kind() ConstraintKind { return ConstraintMax }

func (c *MaxConstraint[T]) Accept(_ *Variable[T], v T) bool { return v <= c.max }

func (c *MaxConstraint[T]) Clone() Constraint[T] { return &MaxConstraint[T]{max: c.max} }

// Value returns the threshold.
func (c *MaxConstraint[T]) Value() T { return c.max }

// SetMin replaces the MIN constraint of p.
func SetMin[T cmp.Ordered](p *Variable[T], min T) *MinConstraint[T] {
	c := NewMin(min)
	p.ReplaceConstraint(c, ConstraintMin)
	return c
}

// SetMax replaces the MAX constraint of p.
func SetMax[T cmp.Ordered](p *Variable[T], max T) *MaxConstraint[T] {
	c := NewMax(max)
	p.ReplaceConstraint(c, ConstraintMax)
	return c
}

// Min returns the first MIN constraint of p.
func Min[T cmp.Ordered](p *Variable[T]) (*MinConstraint[T], bool) {
	c, ok := p.FirstConstraint(ConstraintMin).(*MinConstraint[T])
	return c, ok
}

// Max returns the first MAX constraint of p.
func Max[T cmp.Ordered](p *Variable[T]) (*MaxConstraint[T], bool) {
	c, ok := p.FirstConstraint(ConstraintMax).(*MaxConstraint[T])
	return c, ok
}

// NotEmptyConstraint rejects empty strings and paths.
type NotEmptyConstraint[T ~string] struct{}

// NewNotEmpty creates a NOTEMPTY constraint for string-like values.
func NewNotEmpty[T ~string]() *NotEmptyConstraint[T] { return &NotEmptyConstraint[T]{} }

func (c *NotEmptyConstraint[T]) Kind() ConstraintKind { return ConstraintNotEmpty }

func (c *NotEmptyConstraint[T]) Accept(_ *Variable[T], v T) bool { return len(v) > 0 }

func (c *NotEmptyConstraint[T]) Clone() Constraint[T] { return &NotEmptyConstraint[T]{} }

// PathExistsConstraint accepts paths that exist on disk.
type PathExistsConstraint struct{}

func (PathExistsConstraint) Kind() ConstraintKind { return ConstraintPathExists }

func (PathExistsConstraint) Accept(_ *PathVar, v Path) bool {
	_, err := os.Stat(string(v))
	return err == nil
}

func (PathExistsConstraint) Clone() Constraint[Path] { return PathExistsConstraint{} }

// IsDirectoryConstraint accepts paths naming an existing directory.
type IsDirectoryConstraint struct{}

func (IsDirectoryConstraint) Kind() ConstraintKind { return ConstraintIsDirectory }

func (IsDirectoryConstraint) Accept(_ *PathVar, v Path) bool {
	fi, err := os.Stat(string(v))
	return err == nil && fi.IsDir()
}

func (IsDirectoryConstraint) Clone() Constraint[Path] { return IsDirectoryConstraint{} }

// SelectionNotEmptyConstraint rejects selectors without selected items.
type SelectionNotEmptyConstraint struct{}

func (SelectionNotEmptyConstraint) Kind() ConstraintKind { return ConstraintNotEmpty }

func (SelectionNotEmptyConstraint) Accept(_ *Selection, v ItemSelector) bool { return !v.Empty() }

func (SelectionNotEmptyConstraint) Clone() Constraint[ItemSelector] {
	return SelectionNotEmptyConstraint{}
}

// SelectOnlyOneConstraint accepts selectors with exactly one selected item.
type SelectOnlyOneConstraint struct{}

func (SelectOnlyOneConstraint) Kind() ConstraintKind { return ConstraintSelectOnlyOne }

func (SelectOnlyOneConstraint) Accept(_ *Selection, v ItemSelector) bool { return v.Size() == 1 }

func (SelectOnlyOneConstraint) Clone() Constraint[ItemSelector] { return SelectOnlyOneConstraint{} }

// IsValidConstraint accepts selectors whose indices are all in range.
type IsValidConstraint struct{}

func (IsValidConstraint) Kind() ConstraintKind { return ConstraintIsValid }

func (IsValidConstraint) Accept(_ *Selection, v ItemSelector) bool { return v.IsValid() }

func (IsValidConstraint) Clone() Constraint[ItemSelector] { return IsValidConstraint{} }

// PredicateConstraint wraps an arbitrary check. Its kind is UNKNOWN unless
// given explicitly.
type PredicateConstraint[T any] struct {
	kind ConstraintKind
	fn   func(T) bool
}

// NewPredicate creates a constraint from fn.
func NewPredicate[T any](kind ConstraintKind, fn func(T) bool) *PredicateConstraint[T] {
	return &PredicateConstraint[T]{kind: kind, fn: fn}
}

func (c *PredicateConstraint[T]) Kind() ConstraintKind { return c.kind }

func (c *PredicateConstraint[T]) Accept(_ *Variable[T], v T) bool { return c.fn(v) }

func (c *PredicateConstraint[T]) Clone() Constraint[T] {
	return &PredicateConstraint[T]{kind: c.kind, fn: c.fn}
}
