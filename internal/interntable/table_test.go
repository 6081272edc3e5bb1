package interntable_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"veld/internal/heap"
	"veld/internal/interntable"
	"veld/internal/logging"
)

func TestInternReturnsCanonicalObject(t *testing.T) {
	h := heap.New(1 << 20)
	table := interntable.New("string-table", heap.KindString, 4, logging.NewNop())

	first, err := table.Intern("alpha", h)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	second, err := table.Intern("alpha", h)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if first != second {
		t.Fatal("interning the same value returned distinct objects")
	}

	other, err := table.Intern("beta", h)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if other == first {
		t.Fatal("distinct values share an object")
	}
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
}

func TestLookupIgnoresDeadEntries(t *testing.T) {
	h := heap.New(1 << 20)
	table := interntable.New("string-table", heap.KindString, 4, logging.NewNop())

	obj, err := table.Intern("gone", h)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if _, ok := table.Lookup("gone"); !ok {
		t.Fatal("Lookup missed live entry")
	}

	h.Free(obj)
	if _, ok := table.Lookup("gone"); ok {
		t.Fatal("Lookup returned dead entry")
	}

	// Re-interning a dead value allocates a fresh canonical object.
	fresh, err := table.Intern("gone", h)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}
	if fresh == obj {
		t.Fatal("re-intern returned the dead object")
	}
}

func TestEntryDiedTripsThresholdOnce(t *testing.T) {
	h := heap.New(1 << 20)
	table := interntable.New("string-table", heap.KindString, 3, logging.NewNop())

	var wakes atomic.Int64
	table.SetWaker(func() { wakes.Add(1) })

	objs := make([]*heap.Object, 5)
	for i := range objs {
		obj, err := table.Intern(fmt.Sprintf("value-%d", i), h)
		if err != nil {
			t.Fatalf("Intern: %v", err)
		}
		objs[i] = obj
	}

	table.EntryDied(objs[0])
	table.EntryDied(objs[1])
	if table.HasPendingWork() {
		t.Fatal("pending work raised below threshold")
	}
	table.EntryDied(objs[2])
	if !table.HasPendingWork() {
		t.Fatal("pending work not raised at threshold")
	}
	table.EntryDied(objs[3])
	if got := wakes.Load(); got != 1 {
		t.Fatalf("waker fired %d times, want 1", got)
	}
}

func TestEntryDiedFiltersByKind(t *testing.T) {
	h := heap.New(1 << 20)
	table := interntable.New("symbol-table", heap.KindSymbol, 1, logging.NewNop())
	table.SetWaker(func() { t.Fatal("waker fired for foreign kind") })

	obj, err := h.Allocate(heap.KindString, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	table.EntryDied(obj)
	if table.DeadCount() != 0 {
		t.Fatalf("DeadCount = %d for foreign kind", table.DeadCount())
	}
}

func TestPerformPendingWorkSweepsDeadEntries(t *testing.T) {
	h := heap.New(1 << 20)
	table := interntable.New("string-table", heap.KindString, 2, logging.NewNop())
	table.SetWaker(func() {})

	var keep *heap.Object
	for i := 0; i < 4; i++ {
		obj, err := table.Intern(fmt.Sprintf("value-%d", i), h)
		if err != nil {
			t.Fatalf("Intern: %v", err)
		}
		if i == 0 {
			keep = obj
		} else {
			h.Free(obj)
			table.EntryDied(obj)
		}
	}

	if err := table.PerformPendingWork(context.Background()); err != nil {
		t.Fatalf("PerformPendingWork: %v", err)
	}
	if table.HasPendingWork() {
		t.Fatal("pending work still raised after sweep")
	}
	if table.Len() != 1 {
		t.Fatalf("Len = %d after sweep, want 1", table.Len())
	}
	if table.Swept() != 3 {
		t.Fatalf("Swept = %d, want 3", table.Swept())
	}
	if table.DeadCount() != 0 {
		t.Fatalf("DeadCount = %d after sweep", table.DeadCount())
	}
	if _, ok := table.Lookup("value-0"); !ok || keep.Dead() {
		t.Fatal("sweep removed the live entry")
	}
}
