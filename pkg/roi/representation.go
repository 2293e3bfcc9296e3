package roi

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fibernav/pkg/bitfield"
	"fibernav/pkg/telemetry"
)

// Representation wraps a Region inside a Branch and caches the fibers it
// selects.
type Representation struct {
	id     uuid.UUID
	region Region

	// branch is the owning branch. The branch owns the representation, not
	// the other way round.
	branch *Branch

	active atomic.Bool
	dirty  atomic.Bool

	mu   sync.Mutex
	bits *bitfield.Bitfield

	unsubscribe func()
}

func newRepresentation(region Region, branch *Branch) *Representation {
	r := &Representation{id: uuid.New(), region: region, branch: branch}
	r.active.Store(true)
	r.dirty.Store(true)
	r.unsubscribe = region.Properties().UpdateCondition().Subscribe(r.SetDirty)
	return r
}

// ID returns the stable identifier.
func (r *Representation) ID() uuid.UUID { return r.id }

// Region returns the wrapped region.
func (r *Representation) Region() Region { return r.region }

// Branch returns the branch the representation belongs to.
func (r *Representation) Branch() *Branch { return r.branch }

// Active reports whether the branch takes the region into account.
func (r *Representation) Active() bool { return r.active.Load() }

// SetActive toggles whether the region contributes to its branch.
func (r *Representation) SetActive(active bool) {
	if r.active.Swap(active) != active {
		r.SetDirty()
	}
}

// IsDirty reports whether the cached bitfield is stale.
func (r *Representation) IsDirty() bool { return r.dirty.Load() }

// SetDirty marks the representation stale and propagates to the branch.
func (r *Representation) SetDirty() {
	r.dirty.Store(true)
	if r.branch != nil {
		r.branch.SetDirty()
	}
}

// BitField returns the fibers selected by the region, recomputing them if
// the representation is dirty. The result must not be modified.
func (r *Representation) BitField() *bitfield.Bitfield {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dirty.Load() || r.bits == nil {
		r.recalculate()
	}
	return r.bits
}

func (r *Representation) recalculate() {
	r.dirty.Store(false)
	start := time.Now()

	m := r.branch.manager
	ds, idx := m.data()
	bits := bitfield.New(m.Size(), false)
	if ds != nil {
		r.region.Select(idx, ds, bits)
	}
	r.bits = bits
	m.metrics.ObserveRecompute(telemetry.LevelROI, time.Since(start))
}

func (r *Representation) detach() {
	r.unsubscribe()
}
