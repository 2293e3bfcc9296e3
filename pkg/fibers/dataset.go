// Package fibers holds fiber tract datasets: polylines stored in one flat
// vertex array.
package fibers

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/agilira/go-errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// ErrCodeInvalid marks inconsistent fiber layouts.
const ErrCodeInvalid = "FIBERS_INVALID"

// Dataset is an immutable set of fibers. Fiber i consists of
// Vertices[LineStarts[i] : LineStarts[i]+LineLengths[i]].
type Dataset struct {
	Vertices    []r3.Vec
	LineStarts  []int
	LineLengths []int
	// Colors holds an RGB triple per vertex derived from the local fiber
	// direction.
	Colors []float64

	vertexFiber []int
}

// New validates the layout and builds the vertex to fiber map.
func New(vertices []r3.Vec, starts, lengths []int) (*Dataset, error) {
	if len(starts) != len(lengths) {
		return nil, errors.New(ErrCodeInvalid,
			fmt.Sprintf("%d line starts but %d line lengths", len(starts), len(lengths)))
	}
	vf := make([]int, len(vertices))
	for i := range vf {
		vf[i] = -1
	}
	for i, s := range starts {
		l := lengths[i]
		if s < 0 || l < 0 || s+l > len(vertices) {
			return nil, errors.New(ErrCodeInvalid,
				fmt.Sprintf("fiber %d [%d,%d) exceeds %d vertices", i, s, s+l, len(vertices)))
		}
		for v := s; v < s+l; v++ {
			if vf[v] != -1 {
				return nil, errors.New(ErrCodeInvalid,
					fmt.Sprintf("vertex %d belongs to fibers %d and %d", v, vf[v], i))
			}
			vf[v] = i
		}
	}
	d := &Dataset{
		Vertices:    vertices,
		LineStarts:  starts,
		LineLengths: lengths,
		vertexFiber: vf,
	}
	d.Colors = d.directionColors()
	return d, nil
}

// Size returns the number of fibers.
func (d *Dataset) Size() int { return len(d.LineStarts) }

// VertexCount returns the number of vertices.
func (d *Dataset) VertexCount() int { return len(d.Vertices) }

// FiberOf returns the fiber owning vertex v or -1.
func (d *Dataset) FiberOf(v int) int {
	if v < 0 || v >= len(d.vertexFiber) {
		return -1
	}
	return d.vertexFiber[v]
}

// Fiber returns the vertices of fiber i.
func (d *Dataset) Fiber(i int) []r3.Vec {
	s := d.LineStarts[i]
	return d.Vertices[s : s+d.LineLengths[i]]
}

// Length returns the polyline length of fiber i.
func (d *Dataset) Length(i int) float64 {
	f := d.Fiber(i)
	l := 0.0
	for k := 1; k < len(f); k++ {
		l += r3.Norm(r3.Sub(f[k], f[k-1]))
	}
	return l
}

func (d *Dataset) directionColors() []float64 {
	c := make([]float64, 3*len(d.Vertices))
	for i := range d.LineStarts {
		f := d.Fiber(i)
		s := d.LineStarts[i]
		for k := range f {
			var dir r3.Vec
			switch {
			case len(f) < 2:
			case k == 0:
				dir = r3.Sub(f[1], f[0])
			default:
				dir = r3.Sub(f[k], f[k-1])
			}
			if n := r3.Norm(dir); n > 0 {
				dir = r3.Scale(1/n, dir)
			}
			c[3*(s+k)] = math.Abs(dir.X)
			c[3*(s+k)+1] = math.Abs(dir.Y)
			c[3*(s+k)+2] = math.Abs(dir.Z)
		}
	}
	return c
}

// Stats summarizes fiber lengths.
type Stats struct {
	Fibers     int
	Vertices   int
	MeanLength float64
	StdLength  float64
}

// Stats computes length statistics over all fibers.
func (d *Dataset) Stats() Stats {
	lengths := make([]float64, d.Size())
	for i := range lengths {
		lengths[i] = d.Length(i)
	}
	return summarize(lengths, d.VertexCount())
}

// SelectionStats computes statistics over the fibers listed in selected,
// reading their lengths from a slice produced by Lengths.
func (d *Dataset) SelectionStats(lengths []float64, selected []int) Stats {
	picked := make([]float64, len(selected))
	vertices := 0
	for k, i := range selected {
		picked[k] = lengths[i]
		vertices += d.LineLengths[i]
	}
	return summarize(picked, vertices)
}

func summarize(lengths []float64, vertices int) Stats {
	s := Stats{Fibers: len(lengths), Vertices: vertices}
	switch s.Fibers {
	case 0:
	case 1:
		s.MeanLength = lengths[0]
	default:
		s.MeanLength, s.StdLength = stat.MeanStdDev(lengths, nil)
	}
	return s
}

// Bounds returns the bounding box of all vertices.
func (d *Dataset) Bounds() r3.Box {
	if len(d.Vertices) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: d.Vertices[0], Max: d.Vertices[0]}
	for _, v := range d.Vertices[1:] {
		b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
		b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
	}
	return b
}

// Generate creates n straight, slightly jittered fibers inside the cube
// [0,100]^3. The same seed yields the same dataset.
func Generate(n int, seed uint64) *Dataset {
	const (
		segments = 20
		step     = 2.0
	)
	rnd := rand.New(rand.NewPCG(seed, 0x5eed))
	var (
		verts   []r3.Vec
		starts  []int
		lengths []int
	)
	for i := 0; i < n; i++ {
		p := r3.Vec{X: 20 + rnd.Float64()*60, Y: 20 + rnd.Float64()*60, Z: 20 + rnd.Float64()*60}
		dir := r3.Vec{X: rnd.NormFloat64(), Y: rnd.NormFloat64(), Z: rnd.NormFloat64()}
		if norm := r3.Norm(dir); norm > 0 {
			dir = r3.Scale(step/norm, dir)
		} else {
			dir = r3.Vec{X: step}
		}
		starts = append(starts, len(verts))
		lengths = append(lengths, segments)
		for k := 0; k < segments; k++ {
			verts = append(verts, clamp(p))
			jitter := r3.Vec{X: rnd.NormFloat64(), Y: rnd.NormFloat64(), Z: rnd.NormFloat64()}
			p = r3.Add(p, r3.Add(dir, r3.Scale(0.1, jitter)))
		}
	}
	d, err := New(verts, starts, lengths)
	if err != nil {
		panic(err)
	}
	return d
}

func clamp(v r3.Vec) r3.Vec {
	c := func(f float64) float64 { return math.Max(0, math.Min(100, f)) }
	return r3.Vec{X: c(v.X), Y: c(v.Y), Z: c(v.Z)}
}
