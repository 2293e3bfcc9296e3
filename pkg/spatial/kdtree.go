// Package spatial indexes fiber vertices in a k-d tree for region queries.
package spatial

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex is a point of the index together with its position in the source
// vertex array.
type Vertex struct {
	r3.Vec
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p Vertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Vertex)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p Vertex) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (p Vertex) Distance(c kdtree.Comparable) float64 {
	q := c.(Vertex)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

// Vertices satisfies kdtree.Interface and kdtree.Bounder.
type Vertices []Vertex

func (p Vertices) Index(i int) kdtree.Comparable         { return p[i] }
func (p Vertices) Len() int                              { return len(p) }
func (p Vertices) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method
func (p Vertices) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{Vertices: p, Dim: d}, kdtree.MedianOfRandoms(plane{Vertices: p, Dim: d}, 100))
}

// Bounds returns the axis aligned bounding volume of all vertices.
func (p Vertices) Bounds() *kdtree.Bounding {
	if len(p) == 0 {
		return nil
	}
	lo, hi := p[0].Vec, p[0].Vec
	for _, v := range p[1:] {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return &kdtree.Bounding{Min: Vertex{Vec: lo}, Max: Vertex{Vec: hi}}
}

// plane implements sort.Interface and kdtree.SortSlicer for Vertices
type plane struct {
	Vertices
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.Vertices[i].X < p.Vertices[j].X
	case 1:
		return p.Vertices[i].Y < p.Vertices[j].Y
	case 2:
		return p.Vertices[i].Z < p.Vertices[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{Vertices: p.Vertices[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.Vertices[i], p.Vertices[j] = p.Vertices[j], p.Vertices[i]
}

// queryPad widens box queries so points lying exactly on a split plane are
// still visited. Results are filtered with the exact box afterwards.
const queryPad = 1e-9

// KdTree is an immutable index over a vertex array. It is safe for
// concurrent queries.
type KdTree struct {
	tree   *kdtree.Tree
	bounds r3.Box
	n      int
}

// NewKdTree indexes points. Query results refer to positions in points.
func NewKdTree(points []r3.Vec) *KdTree {
	vs := make(Vertices, len(points))
	for i, p := range points {
		vs[i] = Vertex{Vec: p, Index: i}
	}
	t := &KdTree{n: len(points)}
	if b := vs.Bounds(); b != nil {
		t.bounds = r3.Box{Min: b.Min.(Vertex).Vec, Max: b.Max.(Vertex).Vec}
	}
	t.tree = kdtree.New(vs, true)
	return t
}

// Len returns the number of indexed vertices.
func (t *KdTree) Len() int { return t.n }

// Bounds returns the bounding box of all vertices. ok is false for an empty
// tree.
func (t *KdTree) Bounds() (b r3.Box, ok bool) {
	return t.bounds, t.n > 0
}

func overlaps(a, b r3.Box) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

func inside(b r3.Box, v r3.Vec) bool {
	return b.Min.X <= v.X && v.X <= b.Max.X &&
		b.Min.Y <= v.Y && v.Y <= b.Max.Y &&
		b.Min.Z <= v.Z && v.Z <= b.Max.Z
}

// InBox calls fn with the index of every vertex inside b, borders included.
// Returning true from fn stops the search.
func (t *KdTree) InBox(b r3.Box, fn func(index int) (done bool)) {
	b = b.Canon()
	if t.n == 0 || !overlaps(b, t.bounds) {
		return
	}
	pad := r3.Vec{X: queryPad, Y: queryPad, Z: queryPad}
	q := &kdtree.Bounding{
		Min: Vertex{Vec: r3.Sub(b.Min, pad)},
		Max: Vertex{Vec: r3.Add(b.Max, pad)},
	}
	t.tree.DoBounded(q, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		v := c.(Vertex)
		if !inside(b, v.Vec) {
			return false
		}
		return fn(v.Index)
	})
}

// InRadius returns the indices of all vertices within radius of center,
// nearest first.
func (t *KdTree) InRadius(center r3.Vec, radius float64) []int {
	if t.n == 0 || radius < 0 {
		return nil
	}
	k := kdtree.NewDistKeeper(radius * radius)
	t.tree.NearestSet(k, Vertex{Vec: center})

	res := make([]kdtree.ComparableDist, 0, len(k.Heap))
	for _, cd := range k.Heap {
		// The keeper's heap starts with a sentinel without a point.
		if cd.Comparable == nil {
			continue
		}
		res = append(res, cd)
	}
	sortByDist(res)
	out := make([]int, len(res))
	for i, cd := range res {
		out[i] = cd.Comparable.(Vertex).Index
	}
	return out
}

// Nearest returns the index of the vertex closest to q and its distance.
func (t *KdTree) Nearest(q r3.Vec) (index int, dist float64, ok bool) {
	if t.n == 0 {
		return 0, 0, false
	}
	c, d := t.tree.Nearest(Vertex{Vec: q})
	return c.(Vertex).Index, math.Sqrt(d), true
}

func sortByDist(cs []kdtree.ComparableDist) {
	slices.SortFunc(cs, func(a, b kdtree.ComparableDist) int {
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		return cmp.Compare(a.Comparable.(Vertex).Index, b.Comparable.(Vertex).Index)
	})
}
