package bitfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndFill(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 130} {
		b := New(n, true)
		assert.Equal(t, n, b.Len())
		assert.Equal(t, n, b.Count(), "n=%d", n)
		assert.True(t, b.All())
		b.Not()
		assert.Equal(t, 0, b.Count(), "unused bits must stay clear, n=%d", n)
	}
}

func TestGetSet(t *testing.T) {
	b := New(100, false)
	b.Set(0, true)
	b.Set(64, true)
	b.Set(99, true)
	b.Set(100, true)
	b.Set(-1, true)

	assert.True(t, b.Get(64))
	assert.False(t, b.Get(63))
	assert.False(t, b.Get(100))
	assert.Equal(t, []int{0, 64, 99}, b.Indices())
	assert.Equal(t, 100, b.Len(), "out of range writes do not grow the field")
	assert.Equal(t, 97, b.Clone().Not().Count(), "inversion stops at the last bit")

	b.Set(64, false)
	assert.Equal(t, 2, b.Count())
}

func TestAlgebra(t *testing.T) {
	a := FromBools([]bool{true, true, false, false})
	bb := FromBools([]bool{true, false, true, false})

	tests := []struct {
		name string
		got  *Bitfield
		want string
	}{
		{"and", a.Clone().And(bb), "1000"},
		{"andnot", a.Clone().AndNot(bb), "0100"},
		{"or", a.Clone().Or(bb), "1110"},
		{"not", a.Clone().Not(), "0011"},
		{"andnot then not", a.Clone().AndNot(bb).Not(), "1011"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}
	assert.Equal(t, "1100", a.String(), "operands are not modified through clones")
}

func TestEqualAndClone(t *testing.T) {
	a := FromBools([]bool{true, false, true})
	c := a.Clone()
	assert.True(t, a.Equal(c))
	c.Set(1, true)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(New(4, false)))
	assert.Equal(t, []bool{true, false, true}, a.Bools())
}

func TestLengthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { New(3, true).And(New(4, true)) })
}
