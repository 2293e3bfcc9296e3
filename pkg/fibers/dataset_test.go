package fibers

import (
	"fmt"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"fibernav/pkg/threading"
)

func TestNewValidatesLayout(t *testing.T) {
	verts := []r3.Vec{{}, {X: 1}, {X: 2}, {Y: 1}}

	tests := []struct {
		name    string
		starts  []int
		lengths []int
	}{
		{"count mismatch", []int{0}, []int{2, 2}},
		{"out of range", []int{0, 3}, []int{2, 2}},
		{"overlap", []int{0, 1}, []int{2, 2}},
		{"negative", []int{-1}, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(verts, tt.starts, tt.lengths)
			require.Error(t, err)
			ec, ok := err.(errors.ErrorCoder)
			require.True(t, ok)
			assert.Equal(t, ErrCodeInvalid, string(ec.ErrorCode()))
		})
	}
}

func TestDatasetAccessors(t *testing.T) {
	verts := []r3.Vec{{}, {X: 3}, {X: 3, Y: 4}, {Z: 1}, {Z: 2}}
	d, err := New(verts, []int{0, 3}, []int{3, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, d.Size())
	assert.Equal(t, 5, d.VertexCount())
	assert.Equal(t, 0, d.FiberOf(2))
	assert.Equal(t, 1, d.FiberOf(3))
	assert.Equal(t, -1, d.FiberOf(9))
	assert.InDelta(t, 7.0, d.Length(0), 1e-12)
	assert.InDelta(t, 1.0, d.Length(1), 1e-12)

	s := d.Stats()
	assert.Equal(t, 2, s.Fibers)
	assert.InDelta(t, 4.0, s.MeanLength, 1e-12)
	assert.Greater(t, s.StdLength, 0.0)

	require.Len(t, d.Colors, 15)
	assert.InDelta(t, 1.0, d.Colors[0], 1e-12, "first segment runs along x")
	assert.InDelta(t, 1.0, d.Colors[3*4+2], 1e-12, "second fiber runs along z")

	b := d.Bounds()
	assert.Equal(t, r3.Vec{}, b.Min)
	assert.Equal(t, r3.Vec{X: 3, Y: 4, Z: 2}, b.Max)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(50, 7)
	b := Generate(50, 7)
	c := Generate(50, 8)

	assert.Equal(t, 50, a.Size())
	assert.Equal(t, a.Vertices, b.Vertices)
	assert.NotEqual(t, a.Vertices, c.Vertices)

	bounds := a.Bounds()
	assert.GreaterOrEqual(t, bounds.Min.X, 0.0)
	assert.LessOrEqual(t, bounds.Max.Z, 100.0)
}

func TestLengthsMatchSerial(t *testing.T) {
	d := Generate(37, 3)
	for _, threads := range []int{1, 4, 64} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			got, err := d.Lengths(threads)
			require.NoError(t, err)
			require.Len(t, got, d.Size())
			for i, l := range got {
				assert.InDelta(t, d.Length(i), l, 1e-12, "fiber %d", i)
			}
		})
	}
}

func TestLengthsEmpty(t *testing.T) {
	d, err := New(nil, nil, nil)
	require.NoError(t, err)
	got, err := d.Lengths(threading.Automatic)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectionStats(t *testing.T) {
	verts := []r3.Vec{{}, {X: 3}, {X: 3, Y: 4}, {Z: 1}, {Z: 2}}
	d, err := New(verts, []int{0, 3}, []int{3, 2})
	require.NoError(t, err)
	lengths, err := d.Lengths(2)
	require.NoError(t, err)

	s := d.SelectionStats(lengths, []int{0})
	assert.Equal(t, Stats{Fibers: 1, Vertices: 3, MeanLength: 7}, s)

	assert.Equal(t, Stats{}, d.SelectionStats(lengths, nil))
	assert.Equal(t, d.Stats(), d.SelectionStats(lengths, []int{0, 1}))
}
