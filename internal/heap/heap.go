package heap

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind classifies a managed allocation.
type Kind string

const (
	KindPlain  Kind = "plain"
	KindClass  Kind = "class"
	KindString Kind = "string"
	KindSymbol Kind = "symbol"
)

// Object is a handle to a runtime-managed heap allocation. Liveness is
// tracked on the handle so tables holding weak entries can observe death
// without a back-pointer into the heap.
type Object struct {
	id   uint64
	kind Kind
	size int64
	dead atomic.Bool
}

// ID returns the allocation identifier, unique for the heap's lifetime.
func (o *Object) ID() uint64 { return o.id }

// Kind returns the allocation class.
func (o *Object) Kind() Kind { return o.kind }

// Size returns the allocation size in bytes.
func (o *Object) Size() int64 { return o.size }

// Dead reports whether the object has been freed.
func (o *Object) Dead() bool { return o.dead.Load() }

// CodeUnit is a handle to a compiled code blob. Code units live outside the
// object heap and are scanned by a separate code-cache pass.
type CodeUnit struct {
	id   uint64
	name string
	size int64
}

func (c *CodeUnit) ID() uint64   { return c.id }
func (c *CodeUnit) Name() string { return c.name }
func (c *CodeUnit) Size() int64  { return c.size }

// ObjectVisitor is applied to every object reference during a root scan.
type ObjectVisitor interface {
	VisitObject(*Object)
}

// ObjectVisitorFunc adapts a function to the ObjectVisitor interface.
type ObjectVisitorFunc func(*Object)

func (f ObjectVisitorFunc) VisitObject(o *Object) { f(o) }

// CodeVisitor is applied to every code-unit reference during a code-cache scan.
type CodeVisitor interface {
	VisitCodeUnit(*CodeUnit)
}

// CodeVisitorFunc adapts a function to the CodeVisitor interface.
type CodeVisitorFunc func(*CodeUnit)

func (f CodeVisitorFunc) VisitCodeUnit(c *CodeUnit) { f(c) }

// UsageObserver is invoked after every allocation with the current usage and
// the configured limit. Observers must be cheap and must not allocate on the
// observed heap.
type UsageObserver func(used, limit int64)

// FreeObserver is invoked when an object is freed, before the usage counter
// is decremented. Tables with entries keyed on the object use it to account
// dead entries.
type FreeObserver func(*Object)

// Heap tracks managed allocations and usage accounting. It is safe for
// concurrent use.
type Heap struct {
	limit int64

	nextID atomic.Uint64
	used   atomic.Int64

	mu           sync.RWMutex
	usageObs     []UsageObserver
	freeObs      []FreeObserver
	objectCount  atomic.Int64
	codeCount    atomic.Int64
	freedObjects atomic.Int64
}

// New constructs a heap with the given capacity in bytes.
func New(limit int64) *Heap {
	if limit <= 0 {
		limit = 1 << 30
	}
	return &Heap{limit: limit}
}

// OnUsage registers an observer called after every allocation.
func (h *Heap) OnUsage(obs UsageObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.usageObs = append(h.usageObs, obs)
}

// OnFree registers an observer called for every freed object.
func (h *Heap) OnFree(obs FreeObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.freeObs = append(h.freeObs, obs)
}

// Allocate creates a new managed object and charges its size against the heap.
func (h *Heap) Allocate(kind Kind, size int64) (*Object, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heap: allocation size %d must be positive", size)
	}
	used := h.used.Add(size)
	if used > h.limit {
		h.used.Add(-size)
		return nil, fmt.Errorf("heap: allocation of %d bytes exceeds limit (%d of %d used)", size, used-size, h.limit)
	}
	obj := &Object{id: h.nextID.Add(1), kind: kind, size: size}
	h.objectCount.Add(1)
	h.notifyUsage(used)
	return obj, nil
}

// AllocateCode creates a compiled code unit. Code units are accounted against
// the same limit; a real code cache would segregate them, the maintenance
// subsystem only needs distinct handles.
func (h *Heap) AllocateCode(name string, size int64) (*CodeUnit, error) {
	if size <= 0 {
		return nil, fmt.Errorf("heap: code unit size %d must be positive", size)
	}
	used := h.used.Add(size)
	if used > h.limit {
		h.used.Add(-size)
		return nil, fmt.Errorf("heap: code unit of %d bytes exceeds limit", size)
	}
	unit := &CodeUnit{id: h.nextID.Add(1), name: name, size: size}
	h.codeCount.Add(1)
	h.notifyUsage(used)
	return unit, nil
}

// Free marks the object dead and returns its bytes to the heap. Freeing an
// already-dead object is a no-op.
func (h *Heap) Free(obj *Object) {
	if obj == nil || !obj.dead.CompareAndSwap(false, true) {
		return
	}
	h.mu.RLock()
	obs := h.freeObs
	h.mu.RUnlock()
	for _, fn := range obs {
		fn(obj)
	}
	h.used.Add(-obj.size)
	h.objectCount.Add(-1)
	h.freedObjects.Add(1)
}

// Used returns the current allocated byte count.
func (h *Heap) Used() int64 { return h.used.Load() }

// Limit returns the configured capacity in bytes.
func (h *Heap) Limit() int64 { return h.limit }

// ObjectCount returns the number of live objects.
func (h *Heap) ObjectCount() int64 { return h.objectCount.Load() }

// FreedObjects returns the number of objects freed so far.
func (h *Heap) FreedObjects() int64 { return h.freedObjects.Load() }

func (h *Heap) notifyUsage(used int64) {
	h.mu.RLock()
	obs := h.usageObs
	h.mu.RUnlock()
	for _, fn := range obs {
		fn(used, h.limit)
	}
}
