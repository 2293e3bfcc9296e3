package spatial

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func randomPoints(n int, seed uint64) []r3.Vec {
	rnd := rand.New(rand.NewPCG(seed, seed+1))
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: rnd.Float64() * 10, Y: rnd.Float64() * 10, Z: rnd.Float64() * 10}
	}
	return pts
}

// gridPoints puts many vertices exactly on integer planes.
func gridPoints(n int) []r3.Vec {
	var pts []r3.Vec
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				pts = append(pts, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	return pts
}

func bruteBox(pts []r3.Vec, b r3.Box) []int {
	var out []int
	for i, p := range pts {
		if inside(b, p) {
			out = append(out, i)
		}
	}
	return out
}

func collect(t *KdTree, b r3.Box) []int {
	var out []int
	t.InBox(b, func(i int) bool {
		out = append(out, i)
		return false
	})
	slices.Sort(out)
	return out
}

func TestInBoxMatchesBruteForce(t *testing.T) {
	tests := []struct {
		name string
		pts  []r3.Vec
		box  r3.Box
	}{
		{"random", randomPoints(2000, 1), r3.Box{Min: r3.Vec{X: 2, Y: 3, Z: 1}, Max: r3.Vec{X: 6, Y: 7, Z: 4}}},
		{"grid borders", gridPoints(6), r3.Box{Min: r3.Vec{X: 1, Y: 1, Z: 1}, Max: r3.Vec{X: 3, Y: 4, Z: 2}}},
		{"swapped corners", gridPoints(5), r3.Box{Min: r3.Vec{X: 3, Y: 3, Z: 3}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}},
		{"outside", randomPoints(100, 2), r3.Box{Min: r3.Vec{X: 20, Y: 20, Z: 20}, Max: r3.Vec{X: 30, Y: 30, Z: 30}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewKdTree(tt.pts)
			assert.Equal(t, bruteBox(tt.pts, tt.box.Canon()), collect(tree, tt.box))
		})
	}
}

func TestInBoxStopsEarly(t *testing.T) {
	tree := NewKdTree(gridPoints(4))
	calls := 0
	tree.InBox(r3.Box{Min: r3.Vec{}, Max: r3.Vec{X: 3, Y: 3, Z: 3}}, func(int) bool {
		calls++
		return true
	})
	assert.Equal(t, 1, calls)
}

func TestInRadius(t *testing.T) {
	pts := randomPoints(1000, 3)
	tree := NewKdTree(pts)
	center := r3.Vec{X: 5, Y: 5, Z: 5}

	got := tree.InRadius(center, 2)
	var want []int
	for i, p := range pts {
		if r3.Norm(r3.Sub(p, center)) <= 2 {
			want = append(want, i)
		}
	}
	require.NotEmpty(t, want)
	assert.ElementsMatch(t, want, got)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, r3.Norm2(r3.Sub(pts[got[i-1]], center)), r3.Norm2(r3.Sub(pts[got[i]], center)))
	}
}

func TestNearestAndBounds(t *testing.T) {
	pts := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 2, Z: 3}, {X: -1, Y: 5, Z: 0}}
	tree := NewKdTree(pts)

	i, d, ok := tree.Nearest(r3.Vec{X: 1, Y: 2, Z: 2})
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.InDelta(t, 1.0, d, 1e-12)

	b, ok := tree.Bounds()
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: -1, Y: 0, Z: 0}, b.Min)
	assert.Equal(t, r3.Vec{X: 1, Y: 5, Z: 3}, b.Max)
}

func TestEmptyTree(t *testing.T) {
	tree := NewKdTree(nil)
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, collect(tree, r3.Box{Max: r3.Vec{X: 1, Y: 1, Z: 1}}))
	assert.Empty(t, tree.InRadius(r3.Vec{}, 1))
	_, _, ok := tree.Nearest(r3.Vec{})
	assert.False(t, ok)
}
