package weaktable

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"veld/internal/heap"
	"veld/internal/logging"
)

// Table maps identifiers to weakly held heap objects. A referent's death
// does not clear its entry immediately; dead entries accumulate until the
// unlink threshold, then the maintenance worker removes them in bulk.
type Table struct {
	name      string
	threshold int

	mu      sync.Mutex
	entries map[uint64]*heap.Object
	dead    int

	pending atomic.Bool
	wake    atomic.Pointer[func()]

	logger   *slog.Logger
	unlinked atomic.Int64
}

// New constructs a weak table that requests unlinking after threshold deaths.
func New(name string, threshold int, logger *slog.Logger) *Table {
	if threshold <= 0 {
		threshold = 1
	}
	return &Table{
		name:      name,
		threshold: threshold,
		entries:   make(map[uint64]*heap.Object),
		logger:    logging.NewComponentLogger(logger, name),
	}
}

// SetWaker installs the worker wake callback.
func (t *Table) SetWaker(wake func()) {
	t.wake.Store(&wake)
}

// Add records a weak reference to obj, keyed by the object's id.
func (t *Table) Add(obj *heap.Object) {
	if obj == nil {
		return
	}
	t.mu.Lock()
	t.entries[obj.ID()] = obj
	t.mu.Unlock()
}

// Get returns the referent for id. A dead referent reads as cleared even
// before its entry is unlinked.
func (t *Table) Get(id uint64) (*heap.Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.entries[id]
	if !ok || obj.Dead() {
		return nil, false
	}
	return obj, true
}

// ReferentDied accounts a death and raises pending work at the threshold.
// Wired to the heap's free observer by the kernel.
func (t *Table) ReferentDied(obj *heap.Object) {
	if obj == nil {
		return
	}
	t.mu.Lock()
	if _, ok := t.entries[obj.ID()]; !ok {
		t.mu.Unlock()
		return
	}
	t.dead++
	trip := t.dead >= t.threshold
	t.mu.Unlock()

	if trip && t.pending.CompareAndSwap(false, true) {
		if wake := t.wake.Load(); wake != nil {
			(*wake)()
		}
	}
}

// Name implements maintenance.WorkSource.
func (t *Table) Name() string { return t.name }

// HasPendingWork implements maintenance.WorkSource.
func (t *Table) HasPendingWork() bool { return t.pending.Load() }

// PerformPendingWork unlinks entries whose referents have died.
func (t *Table) PerformPendingWork(ctx context.Context) error {
	t.pending.Store(false)

	t.mu.Lock()
	removed := 0
	for id, obj := range t.entries {
		if obj.Dead() {
			delete(t.entries, id)
			removed++
		}
	}
	t.dead = 0
	remaining := len(t.entries)
	t.mu.Unlock()

	t.unlinked.Add(int64(removed))
	t.logger.Debug("weak entries unlinked",
		logging.Int("removed", removed),
		logging.Int("remaining", remaining),
	)
	return nil
}

// Len returns the number of entries, dead or alive.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Unlinked returns the total entries removed over the table's lifetime.
func (t *Table) Unlinked() int64 { return t.unlinked.Load() }
