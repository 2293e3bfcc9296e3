// Package roi selects fibers with boolean combinations of regions of
// interest.
//
// A Manager owns Branches, a Branch owns Representations and every
// Representation wraps one Region. Editing a region marks its
// representation, branch and the manager dirty; the manager then recomputes
// in the background and BitField returns the up to date selection:
//
//	output = OR over branches ( [NOT] AND over active regions ( [NOT] region ) )
//
// A manager without branches selects every fiber.
package roi

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"

	"fibernav/pkg/bitfield"
	"fibernav/pkg/condition"
	"fibernav/pkg/fibers"
	"fibernav/pkg/property"
	"fibernav/pkg/shared"
	"fibernav/pkg/spatial"
	"fibernav/pkg/telemetry"
	"fibernav/pkg/threading"
)

// Error codes raised by this package.
const (
	ErrCodeNoDataset         = "ROI_NO_DATASET"
	ErrCodeDatasetRegistered = "ROI_DATASET_REGISTERED"
	ErrCodeUnknownParent     = "ROI_UNKNOWN_PARENT"
	ErrCodeNilRegion         = "ROI_NIL_REGION"
)

// DefaultBundleColor is the initial bundle color of new branches.
var DefaultBundleColor = property.Color{R: 1, G: 0, B: 0, A: 1}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMetrics records recomputations.
func WithMetrics(mt *telemetry.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithBackgroundRecompute controls whether SetDirty starts a recomputation
// worker. Without it recomputation only happens in BitField.
func WithBackgroundRecompute(enabled bool) Option {
	return func(m *Manager) { m.background = enabled }
}

// WithBundleColor sets the bundle color of new branches.
func WithBundleColor(c property.Color) Option {
	return func(m *Manager) { m.bundleColor = c }
}

type dataState struct {
	dataset *fibers.Dataset
	index   *spatial.KdTree
}

// Manager combines the selections of all branches over one fiber dataset.
type Manager struct {
	log         *slog.Logger
	metrics     *telemetry.Metrics
	background  bool
	bundleColor property.Color

	state  *shared.Object[dataState]
	colors *shared.Object[[]float64]

	branches *shared.Sequence[*Branch]
	selected atomic.Pointer[Representation]

	// recalc serializes recomputations. Concurrent requests wait and then
	// recompute themselves.
	recalc     sync.Mutex
	dirty      atomic.Bool
	output     atomic.Pointer[bitfield.Bitfield]
	lastRecalc atomic.Int64
	recomputed *condition.Variable

	updates *shared.Object[[]*threading.WorkerThread]

	addNotifiers          *shared.Object[[]func(*Representation)]
	removeNotifiers       *shared.Object[[]func(*Representation)]
	removeBranchNotifiers *shared.Object[[]func(*Branch)]
}

// NewManager creates a manager without dataset and branches.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		log:                   slog.Default(),
		background:            true,
		bundleColor:           DefaultBundleColor,
		state:                 shared.NewObject(dataState{}),
		colors:                shared.NewObject[[]float64](nil),
		branches:              shared.NewSequence[*Branch](),
		recomputed:            condition.New(),
		updates:               shared.NewObject[[]*threading.WorkerThread](nil),
		addNotifiers:          shared.NewObject[[]func(*Representation)](nil),
		removeNotifiers:       shared.NewObject[[]func(*Representation)](nil),
		removeBranchNotifiers: shared.NewObject[[]func(*Branch)](nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddFiberDataset registers the dataset all selections refer to. It can only
// be called once.
func (m *Manager) AddFiberDataset(ds *fibers.Dataset) error {
	if ds == nil {
		return errors.New(ErrCodeNoDataset, "fiber dataset is nil")
	}
	t := m.state.WriteTicket()
	if t.Get().dataset != nil {
		t.Release()
		return errors.New(ErrCodeDatasetRegistered, "a fiber dataset is already registered")
	}
	*t.Get() = dataState{dataset: ds, index: spatial.NewKdTree(ds.Vertices)}
	t.Release()

	m.colors.Store(slices.Clone(ds.Colors))
	m.log.Debug("fiber dataset registered", "fibers", ds.Size(), "vertices", ds.VertexCount())
	m.SetDirty()
	return nil
}

func (m *Manager) data() (*fibers.Dataset, *spatial.KdTree) {
	d := m.state.Load()
	return d.dataset, d.index
}

// Dataset returns the registered dataset or nil.
func (m *Manager) Dataset() *fibers.Dataset {
	ds, _ := m.data()
	return ds
}

// KdTree returns the vertex index of the registered dataset or nil.
func (m *Manager) KdTree() *spatial.KdTree {
	_, idx := m.data()
	return idx
}

// Size returns the number of fibers of the registered dataset.
func (m *Manager) Size() int {
	if ds := m.Dataset(); ds != nil {
		return ds.Size()
	}
	return 0
}

// AddRoi puts region into a new branch. A dataset must be registered.
func (m *Manager) AddRoi(region Region) (*Representation, error) {
	if region == nil {
		return nil, errors.New(ErrCodeNilRegion, "region is nil")
	}
	if m.Dataset() == nil {
		return nil, errors.New(ErrCodeNoDataset, "no fiber dataset registered")
	}
	b, err := newBranch(m, m.bundleColor)
	if err != nil {
		return nil, err
	}
	r := newRepresentation(region, b)
	b.rois.PushBack(r)
	m.branches.PushBack(b)
	m.notifyAdd(r)
	r.SetDirty()
	return r, nil
}

// AddRoiTo puts region into the branch of parent.
func (m *Manager) AddRoiTo(region Region, parent *Representation) (*Representation, error) {
	if region == nil {
		return nil, errors.New(ErrCodeNilRegion, "region is nil")
	}
	if parent == nil || parent.branch == nil || !m.branches.Contains(parent.branch) {
		return nil, errors.New(ErrCodeUnknownParent, "parent region is not managed here")
	}
	r := newRepresentation(region, parent.branch)
	parent.branch.add(r)
	m.notifyAdd(r)
	return r, nil
}

// RemoveRoi removes r from its branch. A branch left empty is removed too.
func (m *Manager) RemoveRoi(r *Representation) {
	if r == nil || r.branch == nil || !r.branch.remove(r) {
		return
	}
	if r.branch.IsEmpty() {
		m.branches.Remove(r.branch)
		r.branch.detach()
		m.notifyRemoveBranch(r.branch)
	}
	if m.selected.CompareAndSwap(r, nil) {
		m.log.Debug("selected region removed", "roi", r.ID())
	}
	m.SetDirty()
	m.notifyRemove(r)
}

// RemoveBranch removes the branch r belongs to together with all its
// regions.
func (m *Manager) RemoveBranch(r *Representation) {
	if r == nil || r.branch == nil || m.branches.Remove(r.branch) == 0 {
		return
	}
	removed := r.branch.removeAll()
	r.branch.detach()
	if sel := m.selected.Load(); sel != nil && slices.Contains(removed, sel) {
		m.selected.CompareAndSwap(sel, nil)
	}
	m.SetDirty()
	m.notifyRemoveBranch(r.branch)
	for _, rr := range removed {
		m.notifyRemove(rr)
	}
}

// Branches returns the branches in insertion order.
func (m *Manager) Branches() []*Branch { return m.branches.Snapshot() }

// SetSelectedRoi remembers the region the user currently works on.
func (m *Manager) SetSelectedRoi(r *Representation) { m.selected.Store(r) }

// SelectedRoi returns the selected region or nil.
func (m *Manager) SelectedRoi() *Representation { return m.selected.Load() }

// IsDirty reports whether the output is stale.
func (m *Manager) IsDirty() bool { return m.dirty.Load() }

// SetDirty marks the output stale and, unless disabled, starts a background
// recomputation. Finished recomputation workers are pruned on each call.
func (m *Manager) SetDirty() {
	m.dirty.Store(true)
	if !m.background {
		return
	}

	w, err := threading.NewWorkerThread(func(_, _ int, _ *atomic.Bool) error {
		defer m.metrics.RecomputeFinished()
		m.recalculate()
		return nil
	}, 0, 1)
	if err != nil {
		m.log.Error("cannot create recompute worker", "error", err)
		return
	}
	w.SubscribeException(func(err error) {
		m.log.Warn("background recompute failed", "error", err)
	})

	t := m.updates.WriteTicket()
	*t.Get() = slices.DeleteFunc(*t.Get(), (*threading.WorkerThread).Finished)
	*t.Get() = append(*t.Get(), w)
	t.Release()

	m.metrics.RecomputeStarted()
	if err := w.Run(); err != nil {
		m.metrics.RecomputeFinished()
		m.log.Error("cannot start recompute worker", "error", err)
	}
}

// Wait blocks until all background recomputations started so far finished.
func (m *Manager) Wait() {
	for _, w := range m.updates.Load() {
		w.Wait()
	}
}

// Pending returns the number of tracked background recomputations that are
// still running.
func (m *Manager) Pending() int {
	n := 0
	for _, w := range m.updates.Load() {
		if !w.Finished() {
			n++
		}
	}
	return n
}

// BitField returns the current selection with one bit per fiber. A dirty
// manager recomputes first. The result is never modified afterwards.
func (m *Manager) BitField() *bitfield.Bitfield {
	m.recalc.Lock()
	recomputed := false
	if m.dirty.Load() || m.output.Load() == nil {
		m.recalculateLocked()
		recomputed = true
	}
	out := m.output.Load()
	m.recalc.Unlock()

	if recomputed {
		m.recomputed.Notify()
	}
	return out
}

// RecomputedCondition fires after every recomputation.
func (m *Manager) RecomputedCondition() condition.Condition { return m.recomputed }

// LastRecalculated returns when the output was last recomputed.
func (m *Manager) LastRecalculated() time.Time {
	ns := m.lastRecalc.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (m *Manager) recalculate() {
	m.recalc.Lock()
	m.recalculateLocked()
	m.recalc.Unlock()
	m.recomputed.Notify()
}

func (m *Manager) recalculateLocked() {
	m.dirty.Store(false)
	start := time.Now()

	n := m.Size()
	branches := m.branches.Snapshot()
	var out *bitfield.Bitfield
	if len(branches) == 0 {
		out = bitfield.New(n, true)
	} else {
		out = bitfield.New(n, false)
		for _, b := range branches {
			out.Or(b.BitField())
		}
	}
	m.output.Store(out)
	m.lastRecalc.Store(timecache.CachedTimeNano())

	selected := out.Count()
	m.metrics.ObserveRecompute(telemetry.LevelManager, time.Since(start))
	m.metrics.SetSelected(selected)
	m.log.Debug("selection recomputed", "branches", len(branches), "selected", selected, "fibers", n)
}

// CustomColors returns a copy of the per vertex RGB colors after bundle
// coloring.
func (m *Manager) CustomColors() []float64 {
	return slices.Clone(m.colors.Load())
}

// UpdateBundleColor paints every fiber selected by b with c.
func (m *Manager) UpdateBundleColor(b *Branch, c property.Color) {
	ds := m.Dataset()
	if ds == nil {
		return
	}
	bits := b.BitField()
	m.colors.Write(func(colors *[]float64) {
		for _, f := range bits.Indices() {
			s := ds.LineStarts[f]
			for k := s; k < s+ds.LineLengths[f]; k++ {
				(*colors)[3*k] = c.R
				(*colors)[3*k+1] = c.G
				(*colors)[3*k+2] = c.B
			}
		}
	})
}

// AddAddNotifier registers fn to be called with every added region.
func (m *Manager) AddAddNotifier(fn func(*Representation)) {
	m.addNotifiers.Write(func(v *[]func(*Representation)) { *v = append(*v, fn) })
}

// AddRemoveNotifier registers fn to be called with every removed region.
func (m *Manager) AddRemoveNotifier(fn func(*Representation)) {
	m.removeNotifiers.Write(func(v *[]func(*Representation)) { *v = append(*v, fn) })
}

// AddRemoveBranchNotifier registers fn to be called with every removed
// branch.
func (m *Manager) AddRemoveBranchNotifier(fn func(*Branch)) {
	m.removeBranchNotifiers.Write(func(v *[]func(*Branch)) { *v = append(*v, fn) })
}

func (m *Manager) notifyAdd(r *Representation) {
	for _, fn := range m.addNotifiers.Load() {
		fn(r)
	}
}

func (m *Manager) notifyRemove(r *Representation) {
	for _, fn := range m.removeNotifiers.Load() {
		fn(r)
	}
}

func (m *Manager) notifyRemoveBranch(b *Branch) {
	for _, fn := range m.removeBranchNotifiers.Load() {
		fn(b)
	}
}

func (m *Manager) String() string {
	return fmt.Sprintf("roi.Manager{fibers: %d, branches: %d}", m.Size(), m.branches.Len())
}
