package maintenance

import "context"

// WorkSource is the capability each maintenance collaborator implements.
// The worker is the only caller of both methods.
type WorkSource interface {
	// Name identifies the source in logs and status output.
	Name() string
	// HasPendingWork is a non-blocking, idempotent check, called with the
	// service monitor held while the worker snapshots its predicates.
	HasPendingWork() bool
	// PerformPendingWork runs the deferred maintenance. It may do nontrivial
	// work and may suspend, but must not block indefinitely.
	PerformPendingWork(ctx context.Context) error
}

// EventSink receives deferred events from the worker's dispatch step.
type EventSink interface {
	DeliverEvent(ctx context.Context, ev *DeferredEvent) error
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(ctx context.Context, ev *DeferredEvent) error

func (f EventSinkFunc) DeliverEvent(ctx context.Context, ev *DeferredEvent) error {
	return f(ctx, ev)
}
