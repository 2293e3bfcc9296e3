// Package property implements hierarchical, typed, thread-safe properties.
//
// Leaves are Variables holding a value of a fixed Go type together with an
// ordered list of constraints. Groups hold an ordered, name-unique list of
// child properties and resolve "/"-separated paths. Every observable change
// (value, constraints, hidden flag, children) fires the node's update
// condition, and a group's update condition aggregates those of its
// children, so waiting on a module's root group wakes on any change below it.
//
// The set of property kinds is closed. Callers inspect a Property with a
// type switch or the As* helpers instead of unchecked casts:
//
//	switch p := prop.(type) {
//	case *property.Group:
//	case *property.Int:
//	}
package property

import (
	"fmt"
	"strings"
	"sync"

	"github.com/agilira/go-errors"

	"fibernav/pkg/condition"
)

// Error codes raised by this package.
const (
	ErrCodeNameMalformed        = "PROPERTY_NAME_MALFORMED"
	ErrCodeNotUnique            = "PROPERTY_NOT_UNIQUE"
	ErrCodeUnknown              = "PROPERTY_UNKNOWN"
	ErrCodeNil                  = "PROPERTY_NIL"
	ErrCodeSelectionOutOfBounds = "PROPERTY_SELECTION_OUT_OF_BOUNDS"
	ErrCodeSelectionParse       = "PROPERTY_SELECTION_PARSE"
	ErrCodeValueParse           = "PROPERTY_VALUE_PARSE"
)

// PathSeparator separates group names in property paths. Property names
// must not contain it.
const PathSeparator = "/"

// Kind identifies the concrete type behind a Property.
type Kind int

const (
	KindUnknown Kind = iota
	KindGroup
	KindInt
	KindDouble
	KindBool
	KindString
	KindPath
	KindSelection
	KindPosition
	KindColor
	KindTrigger
)

var kindNames = map[Kind]string{
	KindUnknown:   "UNKNOWN",
	KindGroup:     "GROUP",
	KindInt:       "INT",
	KindDouble:    "DOUBLE",
	KindBool:      "BOOL",
	KindString:    "STRING",
	KindPath:      "PATH",
	KindSelection: "SELECTION",
	KindPosition:  "POSITION",
	KindColor:     "COLOR",
	KindTrigger:   "TRIGGER",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return KindUnknown, false
}

// Purpose tells whether a property is meant to be changed by others.
type Purpose int

const (
	// PurposeParameter properties are inputs modified by users or other modules.
	PurposeParameter Purpose = iota
	// PurposeInformation properties are outputs only their creator writes.
	PurposeInformation
)

func (p Purpose) String() string {
	if p == PurposeInformation {
		return "INFORMATION"
	}
	return "PARAMETER"
}

// Property is the interface shared by groups and leaf variables.
type Property interface {
	Name() string
	Description() string
	Kind() Kind

	Purpose() Purpose
	SetPurpose(p Purpose)

	Hidden() bool
	SetHidden(hidden bool)

	// UpdateCondition fires on every observable change of this node.
	UpdateCondition() *condition.Set

	// AsString and SetAsString give generic string access used by
	// property file import and export.
	AsString() string
	SetAsString(s string) bool

	// SetFrom copies the value of another property of the same kind.
	SetFrom(other Property) bool

	// Clone returns an independent deep copy with its own conditions.
	Clone() Property
}

// base holds what every property has in common.
type base struct {
	name        string
	description string
	kind        Kind
	update      *condition.Set

	mu      sync.RWMutex
	hidden  bool
	purpose Purpose
}

func validateName(name string) error {
	if strings.Contains(name, PathSeparator) {
		return errors.New(ErrCodeNameMalformed,
			fmt.Sprintf("property name %q must not contain %q", name, PathSeparator))
	}
	return nil
}

func (b *base) init(name, description string, kind Kind) error {
	if err := validateName(name); err != nil {
		return err
	}
	b.name = name
	b.description = description
	b.kind = kind
	b.update = condition.NewSet()
	b.purpose = PurposeParameter
	return nil
}

// copyFrom takes over the descriptive state of another node. Conditions are
// never shared.
func (b *base) copyFrom(o *base) {
	b.name = o.name
	b.description = o.description
	b.kind = o.kind
	b.update = condition.NewSet()
	b.hidden = o.Hidden()
	b.purpose = o.Purpose()
}

// Name returns the immutable name.
func (b *base) Name() string { return b.name }

// Description returns the human readable description.
func (b *base) Description() string { return b.description }

// Kind returns the immutable kind tag.
func (b *base) Kind() Kind { return b.kind }

// Purpose returns the purpose tag.
func (b *base) Purpose() Purpose {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.purpose
}

// SetPurpose changes the purpose tag.
func (b *base) SetPurpose(p Purpose) {
	b.mu.Lock()
	b.purpose = p
	b.mu.Unlock()
}

// Hidden reports whether user interfaces should hide the property.
func (b *base) Hidden() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hidden
}

// SetHidden changes the hide flag and fires the update condition when the
// flag actually changed.
func (b *base) SetHidden(hidden bool) {
	b.mu.Lock()
	changed := b.hidden != hidden
	b.hidden = hidden
	b.mu.Unlock()
	if changed {
		b.update.Notify()
	}
}

// UpdateCondition returns the condition set fired on every change.
func (b *base) UpdateCondition() *condition.Set { return b.update }

// As returns p as a variable of value type T.
func As[T any](p Property) (*Variable[T], bool) {
	v, ok := p.(*Variable[T])
	return v, ok
}

// AsGroup returns p as a group.
func AsGroup(p Property) (*Group, bool) {
	g, ok := p.(*Group)
	return g, ok
}

// AsInt returns p as an integer property.
func AsInt(p Property) (*Int, bool) { return As[int32](p) }

// AsDouble returns p as a floating point property.
func AsDouble(p Property) (*Double, bool) { return As[float64](p) }

// AsBool returns p as a boolean property.
func AsBool(p Property) (*Bool, bool) { return As[bool](p) }

// AsString returns p as a string property.
func AsString(p Property) (*String, bool) { return As[string](p) }

// AsPath returns p as a filename property.
func AsPath(p Property) (*PathVar, bool) { return As[Path](p) }

// AsSelection returns p as a selection property.
func AsSelection(p Property) (*Selection, bool) { return As[ItemSelector](p) }

// AsPosition returns p as a position property.
func AsPosition(p Property) (*PositionVar, bool) { return As[Position](p) }

// AsColor returns p as a color property.
func AsColor(p Property) (*ColorVar, bool) { return As[Color](p) }

// AsTrigger returns p as a trigger property.
func AsTrigger(p Property) (*TriggerVar, bool) { return As[Trigger](p) }
