package maintenance

import "veld/internal/heap"

// EventQueue is an unsynchronized FIFO of deferred events. Insertion order is
// delivery order. The owner layers locking on top; the worker guards its
// queue with the service monitor.
type EventQueue struct {
	events []*DeferredEvent
}

// Enqueue appends an event to the tail.
func (q *EventQueue) Enqueue(ev *DeferredEvent) {
	q.events = append(q.events, ev)
}

// Dequeue removes and returns the head. The queue must be non-empty; callers
// check HasEvents under the same lock.
func (q *EventQueue) Dequeue() *DeferredEvent {
	if len(q.events) == 0 {
		panic("maintenance: Dequeue on empty event queue")
	}
	ev := q.events[0]
	q.events[0] = nil
	q.events = q.events[1:]
	if len(q.events) == 0 {
		q.events = nil
	}
	return ev
}

// HasEvents reports whether the queue is non-empty.
func (q *EventQueue) HasEvents() bool { return len(q.events) > 0 }

// Len returns the queued event count.
func (q *EventQueue) Len() int { return len(q.events) }

// VisitObjects applies the visitor to every heap reference held by every
// queued event. Synchronization is the caller's responsibility.
func (q *EventQueue) VisitObjects(v heap.ObjectVisitor) {
	for _, ev := range q.events {
		ev.VisitObjects(v)
	}
}

// VisitCodeUnits applies the visitor to every code-unit reference held by
// every queued event.
func (q *EventQueue) VisitCodeUnits(v heap.CodeVisitor) {
	for _, ev := range q.events {
		ev.VisitCodeUnits(v)
	}
}
