package roi

import (
	"gonum.org/v1/gonum/spatial/r3"

	"fibernav/pkg/bitfield"
	"fibernav/pkg/fibers"
	"fibernav/pkg/property"
	"fibernav/pkg/spatial"
)

// Region is a geometric selection predicate over fibers.
type Region interface {
	// Select sets the bit of every fiber with at least one vertex inside
	// the region. bits has one entry per fiber of ds.
	Select(idx *spatial.KdTree, ds *fibers.Dataset, bits *bitfield.Bitfield)

	// IsNot reports whether the region excludes the fibers it selects.
	IsNot() bool
	SetNot(not bool)

	// Properties returns the editable parameters. Any change of them fires
	// the group's update condition.
	Properties() *property.Group
}

func markFiber(ds *fibers.Dataset, bits *bitfield.Bitfield) func(int) bool {
	return func(v int) bool {
		bits.Set(ds.FiberOf(v), true)
		return false
	}
}

// Box is an axis aligned box region.
type Box struct {
	props *property.Group
	min   *property.PositionVar
	max   *property.PositionVar
	not   *property.Bool
}

// NewBox creates a box region spanning min and max.
func NewBox(min, max r3.Vec) (*Box, error) {
	g, err := property.NewGroup("Box", "Axis aligned box region")
	if err != nil {
		return nil, err
	}
	b := &Box{props: g}
	if b.min, err = g.AddPosition("Min", "Minimum corner", min); err != nil {
		return nil, err
	}
	if b.max, err = g.AddPosition("Max", "Maximum corner", max); err != nil {
		return nil, err
	}
	if b.not, err = g.AddBool("NOT", "Exclude the fibers passing the box", false); err != nil {
		return nil, err
	}
	return b, nil
}

// Bounds returns the box with ordered corners.
func (b *Box) Bounds() r3.Box {
	return r3.Box{Min: b.min.Get(), Max: b.max.Get()}.Canon()
}

// SetBounds moves the box.
func (b *Box) SetBounds(min, max r3.Vec) {
	b.min.Set(min)
	b.max.Set(max)
}

func (b *Box) Select(idx *spatial.KdTree, ds *fibers.Dataset, bits *bitfield.Bitfield) {
	idx.InBox(b.Bounds(), markFiber(ds, bits))
}

func (b *Box) IsNot() bool                 { return b.not.Get() }
func (b *Box) SetNot(not bool)             { b.not.Set(not) }
func (b *Box) Properties() *property.Group { return b.props }

// Sphere is a ball region.
type Sphere struct {
	props  *property.Group
	center *property.PositionVar
	radius *property.Double
	not    *property.Bool
}

// NewSphere creates a sphere region.
func NewSphere(center r3.Vec, radius float64) (*Sphere, error) {
	g, err := property.NewGroup("Sphere", "Spherical region")
	if err != nil {
		return nil, err
	}
	s := &Sphere{props: g}
	if s.center, err = g.AddPosition("Center", "Center of the sphere", center); err != nil {
		return nil, err
	}
	if s.radius, err = g.AddDouble("Radius", "Radius of the sphere", radius); err != nil {
		return nil, err
	}
	s.radius.RemoveConstraintKind(property.ConstraintMax)
	if s.not, err = g.AddBool("NOT", "Exclude the fibers passing the sphere", false); err != nil {
		return nil, err
	}
	return s, nil
}

// Center returns the center.
func (s *Sphere) Center() r3.Vec { return s.center.Get() }

// Radius returns the radius.
func (s *Sphere) Radius() float64 { return s.radius.Get() }

// Move changes center and radius. Negative radii are rejected.
func (s *Sphere) Move(center r3.Vec, radius float64) bool {
	s.center.Set(center)
	return s.radius.Set(radius)
}

func (s *Sphere) Select(idx *spatial.KdTree, ds *fibers.Dataset, bits *bitfield.Bitfield) {
	mark := markFiber(ds, bits)
	for _, v := range idx.InRadius(s.Center(), s.Radius()) {
		mark(v)
	}
}

func (s *Sphere) IsNot() bool                 { return s.not.Get() }
func (s *Sphere) SetNot(not bool)             { s.not.Set(not) }
func (s *Sphere) Properties() *property.Group { return s.props }
