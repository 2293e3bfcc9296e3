package roi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fibernav/pkg/bitfield"
	"fibernav/pkg/property"
	"fibernav/pkg/shared"
	"fibernav/pkg/telemetry"
)

// Branch combines its regions: a fiber passes when every active region
// selects it, or does not select it for NOT regions. The whole result can
// be inverted with the branch's NOT property.
type Branch struct {
	id      uuid.UUID
	manager *Manager

	rois *shared.Sequence[*Representation]

	props       *property.Group
	isNot       *property.Bool
	bundleColor *property.ColorVar

	dirty atomic.Bool
	mu    sync.Mutex
	bits  *bitfield.Bitfield

	unsubscribe []func()
}

func newBranch(m *Manager, color property.Color) (*Branch, error) {
	g, err := property.NewGroup("Branch", "Combination of regions")
	if err != nil {
		return nil, err
	}
	b := &Branch{
		id:      uuid.New(),
		manager: m,
		rois:    shared.NewSequence[*Representation](),
		props:   g,
	}
	if b.isNot, err = g.AddBool("NOT", "Invert the result of the branch", false); err != nil {
		return nil, err
	}
	if b.bundleColor, err = g.AddColor("Bundle color", "Color of the selected fibers", color); err != nil {
		return nil, err
	}
	b.dirty.Store(true)
	b.unsubscribe = []func(){
		b.isNot.ValueChangeCondition().Subscribe(b.SetDirty),
		b.bundleColor.ValueChangeCondition().Subscribe(func() {
			m.UpdateBundleColor(b, b.bundleColor.Get())
		}),
	}
	return b, nil
}

// ID returns the stable identifier.
func (b *Branch) ID() uuid.UUID { return b.id }

// Properties returns the branch parameters.
func (b *Branch) Properties() *property.Group { return b.props }

// IsNot reports whether the branch result is inverted.
func (b *Branch) IsNot() bool { return b.isNot.Get() }

// SetNot inverts the branch result.
func (b *Branch) SetNot(not bool) { b.isNot.Set(not) }

// BundleColor returns the color used for fibers selected by this branch.
func (b *Branch) BundleColor() property.Color { return b.bundleColor.Get() }

// SetBundleColor recolors the fibers selected by this branch.
func (b *Branch) SetBundleColor(c property.Color) { b.bundleColor.Set(c) }

// ROIs returns the representations in order. The first one is the master.
func (b *Branch) ROIs() []*Representation { return b.rois.Snapshot() }

// Master returns the first representation or nil.
func (b *Branch) Master() *Representation {
	r, _ := b.rois.At(0)
	return r
}

// IsEmpty reports whether the branch has no representations.
func (b *Branch) IsEmpty() bool { return b.rois.Len() == 0 }

// Contains reports whether r belongs to the branch.
func (b *Branch) Contains(r *Representation) bool { return b.rois.Contains(r) }

func (b *Branch) add(r *Representation) {
	b.rois.PushBack(r)
	b.SetDirty()
}

func (b *Branch) remove(r *Representation) bool {
	if b.rois.Remove(r) == 0 {
		return false
	}
	r.detach()
	b.SetDirty()
	return true
}

func (b *Branch) removeAll() []*Representation {
	t := b.rois.WriteTicket()
	rs := *t.Get()
	*t.Get() = nil
	t.Release()
	for _, r := range rs {
		r.detach()
	}
	return rs
}

// detach stops the branch properties from reaching the manager once the
// branch was removed.
func (b *Branch) detach() {
	for _, unsub := range b.unsubscribe {
		unsub()
	}
}

// IsDirty reports whether the cached bitfield is stale.
func (b *Branch) IsDirty() bool { return b.dirty.Load() }

// SetDirty marks the branch stale and propagates to the manager.
func (b *Branch) SetDirty() {
	b.dirty.Store(true)
	if b.manager != nil {
		b.manager.SetDirty()
	}
}

// BitField returns the combined selection of the branch, recomputing it if
// the branch is dirty. The result must not be modified.
func (b *Branch) BitField() *bitfield.Bitfield {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirty.Load() || b.bits == nil {
		b.recalculate()
	}
	return b.bits
}

func (b *Branch) recalculate() {
	b.dirty.Store(false)
	start := time.Now()

	n := b.manager.Size()
	out := bitfield.New(n, true)
	active := false
	for _, r := range b.rois.Snapshot() {
		if !r.Active() {
			continue
		}
		active = true
		if r.Region().IsNot() {
			out.AndNot(r.BitField())
		} else {
			out.And(r.BitField())
		}
	}
	switch {
	case !active:
		// Without active regions the branch selects nothing, inverted or not.
		out.Fill(false)
	case b.IsNot():
		out.Not()
	}
	b.bits = out
	b.manager.metrics.ObserveRecompute(telemetry.LevelBranch, time.Since(start))
}
