package maintenance_test

import (
	"testing"
	"time"

	"veld/internal/heap"
	"veld/internal/maintenance"
)

func TestNewDeferredEventRejectsNilReferences(t *testing.T) {
	h := heap.New(1 << 20)
	obj, err := h.Allocate(heap.KindPlain, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	if _, err := maintenance.NewDeferredEvent(maintenance.KindClassPrepared, "bad", []*heap.Object{obj, nil}, nil); err == nil {
		t.Fatal("expected error for nil object reference")
	}
	if _, err := maintenance.NewDeferredEvent(maintenance.KindCodeUnitLoaded, "bad", nil, []*heap.CodeUnit{nil}); err == nil {
		t.Fatal("expected error for nil code reference")
	}
}

func TestNewDeferredEventCopiesReferenceSlices(t *testing.T) {
	h := heap.New(1 << 20)
	a, err := h.Allocate(heap.KindPlain, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	b, err := h.Allocate(heap.KindPlain, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	objs := []*heap.Object{a}
	ev, err := maintenance.NewDeferredEvent(maintenance.KindClassPrepared, "copy", objs, nil)
	if err != nil {
		t.Fatalf("NewDeferredEvent: %v", err)
	}
	objs[0] = b

	ev.VisitObjects(heap.ObjectVisitorFunc(func(o *heap.Object) {
		if o.ID() != a.ID() {
			t.Fatalf("event saw caller's mutation: object %d", o.ID())
		}
	}))
}

func TestDeferredEventAccessors(t *testing.T) {
	h := heap.New(1 << 20)
	obj, err := h.Allocate(heap.KindString, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	unit, err := h.AllocateCode("accessor#1", 64)
	if err != nil {
		t.Fatalf("AllocateCode: %v", err)
	}

	before := time.Now().UTC()
	ev, err := maintenance.NewDeferredEvent(maintenance.KindCodeUnitLoaded, "hello", []*heap.Object{obj}, []*heap.CodeUnit{unit})
	if err != nil {
		t.Fatalf("NewDeferredEvent: %v", err)
	}

	if ev.ID() == "" {
		t.Fatal("expected non-empty event ID")
	}
	if ev.Kind() != maintenance.KindCodeUnitLoaded {
		t.Fatalf("Kind = %s", ev.Kind())
	}
	if ev.Message() != "hello" {
		t.Fatalf("Message = %q", ev.Message())
	}
	if ev.ObjectCount() != 1 || ev.CodeUnitCount() != 1 {
		t.Fatalf("counts = %d/%d, want 1/1", ev.ObjectCount(), ev.CodeUnitCount())
	}
	if ev.OccurredAt().Before(before) || ev.OccurredAt().After(time.Now().UTC()) {
		t.Fatalf("OccurredAt = %s outside construction window", ev.OccurredAt())
	}

	other, err := maintenance.NewDeferredEvent(maintenance.KindCodeUnitLoaded, "hello", nil, nil)
	if err != nil {
		t.Fatalf("NewDeferredEvent: %v", err)
	}
	if other.ID() == ev.ID() {
		t.Fatal("expected unique event IDs")
	}
}
