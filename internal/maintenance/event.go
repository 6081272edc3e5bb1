package maintenance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"veld/internal/heap"
)

// Kind classifies a deferred event.
type Kind string

const (
	KindCodeUnitLoaded   Kind = "code_unit_loaded"
	KindCodeUnitUnloaded Kind = "code_unit_unloaded"
	KindClassPrepared    Kind = "class_prepared"
)

// DeferredEvent is a notification produced somewhere in the runtime that must
// be delivered later, off the producer's call stack. It is immutable after
// construction and carries strong references to the heap objects and code
// units the delivery needs, keeping them reachable until delivery completes.
type DeferredEvent struct {
	id         string
	kind       Kind
	message    string
	occurredAt time.Time
	objects    []*heap.Object
	code       []*heap.CodeUnit
}

// NewDeferredEvent builds an event referencing the given objects and code
// units. All references must be non-nil; the slices are copied.
func NewDeferredEvent(kind Kind, message string, objects []*heap.Object, code []*heap.CodeUnit) (*DeferredEvent, error) {
	for i, obj := range objects {
		if obj == nil {
			return nil, fmt.Errorf("maintenance: deferred event object reference %d is nil", i)
		}
	}
	for i, unit := range code {
		if unit == nil {
			return nil, fmt.Errorf("maintenance: deferred event code reference %d is nil", i)
		}
	}
	ev := &DeferredEvent{
		id:         uuid.NewString(),
		kind:       kind,
		message:    message,
		occurredAt: time.Now().UTC(),
	}
	if len(objects) > 0 {
		ev.objects = append([]*heap.Object(nil), objects...)
	}
	if len(code) > 0 {
		ev.code = append([]*heap.CodeUnit(nil), code...)
	}
	return ev, nil
}

// ID returns the event's unique identifier.
func (e *DeferredEvent) ID() string { return e.id }

// Kind returns the event classification.
func (e *DeferredEvent) Kind() Kind { return e.kind }

// Message returns the delivery payload text.
func (e *DeferredEvent) Message() string { return e.message }

// OccurredAt returns the event creation time.
func (e *DeferredEvent) OccurredAt() time.Time { return e.occurredAt }

// ObjectCount returns the number of heap references the event holds.
func (e *DeferredEvent) ObjectCount() int { return len(e.objects) }

// CodeUnitCount returns the number of code-unit references the event holds.
func (e *DeferredEvent) CodeUnitCount() int { return len(e.code) }

// VisitObjects applies the visitor to every heap reference the event holds.
func (e *DeferredEvent) VisitObjects(v heap.ObjectVisitor) {
	for _, obj := range e.objects {
		v.VisitObject(obj)
	}
}

// VisitCodeUnits applies the visitor to every code-unit reference the event holds.
func (e *DeferredEvent) VisitCodeUnits(v heap.CodeVisitor) {
	for _, unit := range e.code {
		v.VisitCodeUnit(unit)
	}
}
