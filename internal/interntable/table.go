package interntable

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"veld/internal/heap"
	"veld/internal/logging"
)

// Table deduplicates string-keyed allocations and defers dead-entry sweeping
// to the maintenance worker. The runtime keeps two instances, one for
// interned strings and one for symbols.
//
// Lookup and intern take the table lock; sweeping is deferred so the
// allocation fast path never pays for compaction.
type Table struct {
	name      string
	kind      heap.Kind
	threshold int

	mu      sync.Mutex
	entries map[string]*heap.Object
	dead    int

	pending atomic.Bool
	wake    atomic.Pointer[func()]

	logger *slog.Logger
	swept  atomic.Int64
}

// New constructs a table that requests a sweep once threshold entries have died.
func New(name string, kind heap.Kind, threshold int, logger *slog.Logger) *Table {
	if threshold <= 0 {
		threshold = 1
	}
	return &Table{
		name:      name,
		kind:      kind,
		threshold: threshold,
		entries:   make(map[string]*heap.Object),
		logger:    logging.NewComponentLogger(logger, name),
	}
}

// SetWaker installs the worker wake callback. Pending work raised before the
// waker is installed is picked up on the worker's next pass.
func (t *Table) SetWaker(wake func()) {
	t.wake.Store(&wake)
}

// Intern returns the canonical object for value, allocating one on h if the
// table holds no live entry.
func (t *Table) Intern(value string, h *heap.Heap) (*heap.Object, error) {
	t.mu.Lock()
	if obj, ok := t.entries[value]; ok && !obj.Dead() {
		t.mu.Unlock()
		return obj, nil
	}
	t.mu.Unlock()

	// Allocate outside the table lock; heap observers may call back into
	// tables via EntryDied.
	obj, err := h.Allocate(t.kind, int64(len(value))+16)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[value]; ok && !existing.Dead() {
		// Lost the race; the canonical entry wins.
		return existing, nil
	}
	if old, ok := t.entries[value]; ok && old.Dead() {
		t.dead--
	}
	t.entries[value] = obj
	return obj, nil
}

// Lookup returns the live canonical object for value, if any.
func (t *Table) Lookup(value string) (*heap.Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.entries[value]
	if !ok || obj.Dead() {
		return nil, false
	}
	return obj, true
}

// EntryDied records the death of a table referent. Once the dead count
// reaches the sweep threshold the table flags pending work and wakes the
// maintenance worker. Wired to the heap's free observer by the kernel.
func (t *Table) EntryDied(obj *heap.Object) {
	if obj == nil || obj.Kind() != t.kind {
		return
	}
	t.mu.Lock()
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

// PerformPendingWork sweeps dead entries out of the table.
func (t *Table) PerformPendingWork(ctx context.Context) error {
	t.pending.Store(false)

	t.mu.Lock()
	removed := 0
	for value, obj := range t.entries {
		if obj.Dead() {
			delete(t.entries, value)
			removed++
		}
	}
	t.dead = 0
	remaining := len(t.entries)
	t.mu.Unlock()

	t.swept.Add(int64(removed))
	t.logger.Debug("table sweep complete",
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

// DeadCount returns the current dead-entry tally.
func (t *Table) DeadCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dead
}

// Swept returns the total entries removed over the table's lifetime.
func (t *Table) Swept() int64 { return t.swept.Load() }
