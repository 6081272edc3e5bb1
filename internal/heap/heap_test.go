package heap_test

import (
	"sync"
	"testing"

	"veld/internal/heap"
)

func TestAllocateChargesUsage(t *testing.T) {
	h := heap.New(1024)
	obj, err := h.Allocate(heap.KindString, 256)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if obj.Kind() != heap.KindString || obj.Size() != 256 {
		t.Fatalf("unexpected object: kind=%s size=%d", obj.Kind(), obj.Size())
	}
	if obj.Dead() {
		t.Fatal("fresh object reports dead")
	}
	if h.Used() != 256 {
		t.Fatalf("Used = %d, want 256", h.Used())
	}
	if h.ObjectCount() != 1 {
		t.Fatalf("ObjectCount = %d, want 1", h.ObjectCount())
	}
}

func TestAllocateRejectsOverLimit(t *testing.T) {
	h := heap.New(128)
	if _, err := h.Allocate(heap.KindPlain, 256); err == nil {
		t.Fatal("expected error for allocation over limit")
	}
	if h.Used() != 0 {
		t.Fatalf("failed allocation charged %d bytes", h.Used())
	}
	if _, err := h.Allocate(heap.KindPlain, 0); err == nil {
		t.Fatal("expected error for non-positive size")
	}
}

func TestFreeReturnsBytesOnce(t *testing.T) {
	h := heap.New(1024)
	obj, err := h.Allocate(heap.KindPlain, 100)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	h.Free(obj)
	if !obj.Dead() {
		t.Fatal("freed object not marked dead")
	}
	if h.Used() != 0 {
		t.Fatalf("Used = %d after free, want 0", h.Used())
	}
	if h.FreedObjects() != 1 {
		t.Fatalf("FreedObjects = %d, want 1", h.FreedObjects())
	}

	// Double free must not double-credit.
	h.Free(obj)
	if h.Used() != 0 || h.FreedObjects() != 1 {
		t.Fatalf("double free changed accounting: used=%d freed=%d", h.Used(), h.FreedObjects())
	}
}

func TestObserversFire(t *testing.T) {
	h := heap.New(1 << 20)

	var mu sync.Mutex
	var usages []int64
	var freed []uint64
	h.OnUsage(func(used, limit int64) {
		mu.Lock()
		usages = append(usages, used)
		mu.Unlock()
		if limit != 1<<20 {
			t.Errorf("observer limit = %d", limit)
		}
	})
	h.OnFree(func(o *heap.Object) {
		mu.Lock()
		freed = append(freed, o.ID())
		mu.Unlock()
	})

	obj, err := h.Allocate(heap.KindSymbol, 64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	h.Free(obj)

	mu.Lock()
	defer mu.Unlock()
	if len(usages) != 1 || usages[0] != 64 {
		t.Fatalf("usage observations = %v", usages)
	}
	if len(freed) != 1 || freed[0] != obj.ID() {
		t.Fatalf("free observations = %v", freed)
	}
}

func TestAllocateCodeProducesDistinctIDs(t *testing.T) {
	h := heap.New(1 << 20)
	a, err := h.AllocateCode("stub#1", 32)
	if err != nil {
		t.Fatalf("AllocateCode: %v", err)
	}
	b, err := h.AllocateCode("stub#2", 32)
	if err != nil {
		t.Fatalf("AllocateCode: %v", err)
	}
	if a.ID() == b.ID() {
		t.Fatal("code units share an ID")
	}
	if a.Name() != "stub#1" {
		t.Fatalf("Name = %q", a.Name())
	}
	obj, err := h.Allocate(heap.KindPlain, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if obj.ID() == a.ID() || obj.ID() == b.ID() {
		t.Fatal("object ID collides with code unit ID")
	}
}

func TestConcurrentAllocationAccounting(t *testing.T) {
	h := heap.New(1 << 20)
	const workers = 8
	const perWorker = 100

	var wg sync.WaitGroup
	objs := make([][]*heap.Object, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				obj, err := h.Allocate(heap.KindPlain, 16)
				if err != nil {
					t.Errorf("Allocate: %v", err)
					return
				}
				objs[w] = append(objs[w], obj)
			}
		}(w)
	}
	wg.Wait()

	if h.Used() != workers*perWorker*16 {
		t.Fatalf("Used = %d, want %d", h.Used(), workers*perWorker*16)
	}
	for _, list := range objs {
		for _, obj := range list {
			h.Free(obj)
		}
	}
	if h.Used() != 0 {
		t.Fatalf("Used = %d after freeing everything", h.Used())
	}
}
