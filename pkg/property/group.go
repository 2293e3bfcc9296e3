package property

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"

	"fibernav/pkg/condition"
	"fibernav/pkg/shared"
)

// Group is a property holding an ordered list of uniquely named children.
// A module's root group usually has an empty name.
type Group struct {
	base

	children    *shared.Sequence[Property]
	childChange *condition.Variable
}

// NewGroup creates an empty group.
func NewGroup(name, description string) (*Group, error) {
	g := &Group{}
	if err := g.base.init(name, description, KindGroup); err != nil {
		return nil, err
	}
	g.wire()
	return g, nil
}

func (g *Group) wire() {
	g.childChange = condition.New()
	g.children = shared.NewSequence[Property]()
	g.children.SetChangeNotifier(g.childChange)
	g.update.Add(g.childChange)
}

// AddProperty appends p. A sibling with the same name makes it fail with
// PROPERTY_NOT_UNIQUE and leaves the group unchanged. Children of an
// INFORMATION group become INFORMATION too.
func (g *Group) AddProperty(p Property) error {
	if p == nil {
		return errors.New(ErrCodeNil, "cannot add a nil property")
	}

	t := g.children.WriteTicket()
	for _, c := range *t.Get() {
		if c.Name() == p.Name() {
			t.SuppressNotify()
			t.Release()
			return errors.New(ErrCodeNotUnique,
				fmt.Sprintf("property %q already exists in group %q", p.Name(), g.Name()))
		}
	}
	if g.Purpose() == PurposeInformation {
		p.SetPurpose(PurposeInformation)
	}
	*t.Get() = append(*t.Get(), p)
	g.update.Add(p.UpdateCondition())
	t.Release()
	return nil
}

// RemoveProperty removes p by identity. Unknown properties are ignored.
func (g *Group) RemoveProperty(p Property) {
	if p == nil {
		return
	}
	if g.children.Remove(p) > 0 {
		g.update.Remove(p.UpdateCondition())
	}
}

// Clear removes all children.
func (g *Group) Clear() {
	t := g.children.WriteTicket()
	defer t.Release()
	for _, c := range *t.Get() {
		g.update.Remove(c.UpdateCondition())
	}
	if len(*t.Get()) == 0 {
		t.SuppressNotify()
	}
	*t.Get() = nil
}

// Len returns the number of direct children.
func (g *Group) Len() int { return g.children.Len() }

// Properties returns a snapshot of the direct children in insertion order.
func (g *Group) Properties() []Property { return g.children.Snapshot() }

// ReadTicket locks the child list for iteration. Release it before
// modifying the group.
func (g *Group) ReadTicket() *shared.ReadTicket[[]Property] {
	return g.children.ReadTicket()
}

// ChildrenChangeCondition fires whenever children are added or removed.
func (g *Group) ChildrenChangeCondition() condition.Condition { return g.childChange }

func (g *Group) local(name string) Property {
	t := g.children.ReadTicket()
	defer t.Release()
	for _, c := range t.Get() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// Find resolves a "/"-separated path relative to g. Every segment but the
// last must name a group.
func (g *Group) Find(path string) (Property, bool) {
	segs := strings.FieldsFunc(path, func(r rune) bool { return string(r) == PathSeparator })
	if len(segs) == 0 {
		return nil, false
	}
	cur := g
	for i, s := range segs {
		p := cur.local(s)
		if p == nil {
			return nil, false
		}
		if i == len(segs)-1 {
			return p, true
		}
		next, ok := p.(*Group)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Get is Find returning PROPERTY_UNKNOWN when nothing matches.
func (g *Group) Get(path string) (Property, error) {
	p, ok := g.Find(path)
	if !ok {
		return nil, errors.New(ErrCodeUnknown,
			fmt.Sprintf("property %q not found in group %q", path, g.Name()))
	}
	return p, nil
}

// Exists reports whether path resolves.
func (g *Group) Exists(path string) bool {
	_, ok := g.Find(path)
	return ok
}

// AsString returns an empty string; groups carry no value.
func (g *Group) AsString() string { return "" }

// SetAsString accepts and ignores any string.
func (g *Group) SetAsString(string) bool { return true }

// SetFrom copies the values of all equally named children of another group.
// It fails when other is no group or a matching child rejected its value.
func (g *Group) SetFrom(other Property) bool {
	o, ok := other.(*Group)
	if !ok {
		return false
	}
	ok = true
	for _, src := range o.Properties() {
		if dst := g.local(src.Name()); dst != nil {
			ok = dst.SetFrom(src) && ok
		}
	}
	return ok
}

// Clone deep-copies the whole subtree.
func (g *Group) Clone() Property { return g.CloneGroup() }

// CloneGroup is Clone with the concrete type preserved. Every node of the
// copy has its own conditions.
func (g *Group) CloneGroup() *Group {
	c := &Group{}
	c.base.copyFrom(&g.base)
	c.wire()
	t := c.children.WriteTicket()
	for _, child := range g.Properties() {
		cc := child.Clone()
		*t.Get() = append(*t.Get(), cc)
		c.update.Add(cc.UpdateCondition())
	}
	t.SuppressNotify()
	t.Release()
	return c
}

// AddGroup creates a sub group and adds it.
func (g *Group) AddGroup(name, description string) (*Group, error) {
	sub, err := NewGroup(name, description)
	if err != nil {
		return nil, err
	}
	if err := g.AddProperty(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func add[T any](g *Group, name, description string, initial T, c codec[T], opts []Option) (*Variable[T], error) {
	p, err := newVariable(name, description, initial, c, opts...)
	if err != nil {
		return nil, err
	}
	if err := g.AddProperty(p); err != nil {
		return nil, err
	}
	return p, nil
}

func isParameter(p Property) bool { return p.Purpose() == PurposeParameter }

// AddInt creates and adds an INT property. Parameters are limited to
// [0,100] unless the caller replaces those constraints.
func (g *Group) AddInt(name, description string, initial int32, opts ...Option) (*Int, error) {
	p, err := add(g, name, description, initial, intCodec, opts)
	if err != nil {
		return nil, err
	}
	if isParameter(p) {
		SetMin(p, 0)
		SetMax(p, 100)
	}
	return p, nil
}

// AddDouble creates and adds a DOUBLE property. Parameters are limited to
// [0,100] unless the caller replaces those constraints.
func (g *Group) AddDouble(name, description string, initial float64, opts ...Option) (*Double, error) {
	p, err := add(g, name, description, initial, doubleCodec, opts)
	if err != nil {
		return nil, err
	}
	if isParameter(p) {
		SetMin(p, 0.0)
		SetMax(p, 100.0)
	}
	return p, nil
}

// AddBool creates and adds a BOOL property.
func (g *Group) AddBool(name, description string, initial bool, opts ...Option) (*Bool, error) {
	return add(g, name, description, initial, boolCodec, opts)
}

// AddString creates and adds a STRING property.
func (g *Group) AddString(name, description, initial string, opts ...Option) (*String, error) {
	return add(g, name, description, initial, stringCodec, opts)
}

// AddPath creates and adds a PATH property. Parameters must not be empty.
func (g *Group) AddPath(name, description string, initial Path, opts ...Option) (*PathVar, error) {
	p, err := add(g, name, description, initial, pathCodec, opts)
	if err != nil {
		return nil, err
	}
	if isParameter(p) {
		p.AddConstraint(NewNotEmpty[Path]())
	}
	return p, nil
}

// AddSelection creates and adds a SELECTION property. Parameters only accept
// valid selectors.
func (g *Group) AddSelection(name, description string, initial ItemSelector, opts ...Option) (*Selection, error) {
	p, err := add(g, name, description, initial, selectionCodec, opts)
	if err != nil {
		return nil, err
	}
	if isParameter(p) {
		p.AddConstraint(IsValidConstraint{})
	}
	return p, nil
}

// AddPosition creates and adds a POSITION property.
func (g *Group) AddPosition(name, description string, initial Position, opts ...Option) (*PositionVar, error) {
	return add(g, name, description, initial, positionCodec, opts)
}

// AddColor creates and adds a COLOR property.
func (g *Group) AddColor(name, description string, initial Color, opts ...Option) (*ColorVar, error) {
	return add(g, name, description, initial, colorCodec, opts)
}

// AddTrigger creates and adds a TRIGGER property.
func (g *Group) AddTrigger(name, description string, initial Trigger, opts ...Option) (*TriggerVar, error) {
	return add(g, name, description, initial, triggerCodec, opts)
}
