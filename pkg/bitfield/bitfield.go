// Package bitfield implements a fixed-length boolean vector, one bit per
// fiber, on top of bitset.BitSet.
//
// A Bitfield is not safe for concurrent mutation. Owners publish finished
// bitfields and never modify them afterwards.
package bitfield

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Bitfield is a fixed-length vector of bits. Unlike a bare BitSet it never
// grows: out of range writes are ignored and binary operations require equal
// lengths.
type Bitfield struct {
	set *bitset.BitSet
	n   int
}

// New creates a bitfield of n bits all set to value.
func New(n int, value bool) *Bitfield {
	if n < 0 {
		n = 0
	}
	b := &Bitfield{set: bitset.New(uint(n)), n: n}
	if value {
		b.Fill(true)
	}
	return b
}

// FromBools creates a bitfield with the given bits.
func FromBools(v []bool) *Bitfield {
	b := New(len(v), false)
	for i, x := range v {
		if x {
			b.set.Set(uint(i))
		}
	}
	return b
}

// Len returns the number of bits.
func (b *Bitfield) Len() int { return b.n }

// Get returns bit i. Out of range indices read as false.
func (b *Bitfield) Get(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.set.Test(uint(i))
}

// Set changes bit i. Out of range indices are ignored.
func (b *Bitfield) Set(i int, v bool) {
	if i < 0 || i >= b.n {
		return
	}
	b.set.SetTo(uint(i), v)
}

// Fill sets all bits to v.
func (b *Bitfield) Fill(v bool) {
	b.set.ClearAll()
	if v {
		b.set.FlipRange(0, uint(b.n))
	}
}

func (b *Bitfield) mustMatch(o *Bitfield) {
	if b.n != o.n {
		panic("bitfield: length mismatch")
	}
}

// And sets b to b AND o.
func (b *Bitfield) And(o *Bitfield) *Bitfield {
	b.mustMatch(o)
	b.set.InPlaceIntersection(o.set)
	return b
}

// AndNot sets b to b AND NOT o.
func (b *Bitfield) AndNot(o *Bitfield) *Bitfield {
	b.mustMatch(o)
	b.set.InPlaceDifference(o.set)
	return b
}

// Or sets b to b OR o.
func (b *Bitfield) Or(o *Bitfield) *Bitfield {
	b.mustMatch(o)
	b.set.InPlaceUnion(o.set)
	return b
}

// Not inverts every bit of b.
func (b *Bitfield) Not() *Bitfield {
	b.set.FlipRange(0, uint(b.n))
	return b
}

// Count returns the number of set bits.
func (b *Bitfield) Count() int { return int(b.set.Count()) }

// All reports whether every bit is set.
func (b *Bitfield) All() bool { return b.Count() == b.n }

// Clone returns an independent copy.
func (b *Bitfield) Clone() *Bitfield {
	return &Bitfield{set: b.set.Clone(), n: b.n}
}

// Equal reports whether both bitfields have the same length and bits.
func (b *Bitfield) Equal(o *Bitfield) bool {
	return b.n == o.n && b.set.Equal(o.set)
}

// Bools expands the bitfield into a slice.
func (b *Bitfield) Bools() []bool {
	out := make([]bool, b.n)
	for i := range out {
		out[i] = b.Get(i)
	}
	return out
}

// Indices returns the positions of all set bits in ascending order.
func (b *Bitfield) Indices() []int {
	out := make([]int, 0, b.Count())
	for i, ok := b.set.NextSet(0); ok; i, ok = b.set.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

// String renders the bits as a string of '1' and '0'.
func (b *Bitfield) String() string {
	var sb strings.Builder
	sb.Grow(b.n)
	for i := 0; i < b.n; i++ {
		if b.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
