package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"veld/internal/heap"
	"veld/internal/logging"
	"veld/internal/safepoint"
)

const workerThreadName = "maintenance-worker"

// Config wires a worker's collaborators. The four source slices are the
// fixed, statically known work-source set, listed in dispatch priority order:
// table maintenance runs first, then delivery of the in-flight deferred
// event, then sensors, then notifiers, then weak-table unlinking.
type Config struct {
	Registry *safepoint.Registry
	Sink     EventSink
	Logger   *slog.Logger

	TableSources    []WorkSource
	SensorSources   []WorkSource
	NotifierSources []WorkSource
	WeakSources     []WorkSource

	// OnDispatchFailure receives errors surfaced by PerformPendingWork or
	// event delivery. When nil the worker panics, so an unhandled dispatch
	// failure terminates the process rather than being swallowed.
	OnDispatchFailure func(error)
}

// Worker is the runtime's single background maintenance thread. It owns the
// deferred-event queue, polls the registered work sources, and exposes the
// producer-facing enqueue entry point and the collector-facing root scans.
//
// The runtime creates exactly one worker at bootstrap and never stops it;
// process exit terminates the loop implicitly.
type Worker struct {
	monitor  *Monitor
	queue    EventQueue     // guarded by monitor
	inflight *DeferredEvent // guarded by monitor

	tables    []WorkSource
	sensors   []WorkSource
	notifiers []WorkSource
	weak      []WorkSource

	sink      EventSink
	thread    *safepoint.Thread
	logger    *slog.Logger
	onFailure func(error)

	started    atomic.Bool
	iterations atomic.Uint64
	delivered  atomic.Uint64
	failures   atomic.Uint64
}

// Start constructs the maintenance worker, registers it with the runtime's
// thread inventory, and launches its loop. A registration failure is a
// resource-exhaustion condition the caller must treat as fatal: required
// background maintenance has no fallback.
func Start(cfg Config) (*Worker, error) {
	if cfg.Registry == nil {
		return nil, errors.New("maintenance: worker requires a safepoint registry")
	}
	if cfg.Sink == nil {
		return nil, errors.New("maintenance: worker requires an event sink")
	}

	thread, err := cfg.Registry.Register(workerThreadName)
	if err != nil {
		return nil, fmt.Errorf("maintenance: create worker thread: %w", err)
	}

	w := &Worker{
		monitor:   NewMonitor(),
		tables:    cfg.TableSources,
		sensors:   cfg.SensorSources,
		notifiers: cfg.NotifierSources,
		weak:      cfg.WeakSources,
		sink:      cfg.Sink,
		thread:    thread,
		logger:    logging.NewComponentLogger(cfg.Logger, "maintenance"),
		onFailure: cfg.OnDispatchFailure,
	}
	w.started.Store(true)
	go w.run()

	w.logger.Info("maintenance worker started",
		logging.Int("table_sources", len(w.tables)),
		logging.Int("sensor_sources", len(w.sensors)),
		logging.Int("notifier_sources", len(w.notifiers)),
		logging.Int("weak_sources", len(w.weak)),
	)
	return w, nil
}

// readySet is the predicate snapshot taken atomically under the monitor.
// Dispatch acts only on what the snapshot observed; a predicate that flips
// true afterwards waits for the next iteration.
type readySet struct {
	tables    []WorkSource
	sensors   []WorkSource
	notifiers []WorkSource
	weak      []WorkSource
}

func (r readySet) empty() bool {
	return len(r.tables) == 0 && len(r.sensors) == 0 && len(r.notifiers) == 0 && len(r.weak) == 0
}

func (w *Worker) run() {
	ctx := context.Background()
	for {
		ready, ev := w.awaitWork()
		w.iterations.Add(1)
		w.dispatch(ctx, ready, ev)
	}
}

// awaitWork parks until at least one work-source predicate is true or the
// queue is non-empty. The monitor wait sits inside a safepoint-safe blocked
// region: a global pause proceeds without waiting on this thread, and leaving
// the region while a pause is active parks until the world resumes. The
// region is exited after the monitor is released, so the thread never parks
// on the pause while holding the monitor.
func (w *Worker) awaitWork() (readySet, *DeferredEvent) {
	region := w.thread.EnterBlocked()
	defer region.Exit()

	w.monitor.Lock()
	defer w.monitor.Unlock()

	var ready readySet
	var hasEvent bool
	w.monitor.Await(func() bool {
		ready = readySet{
			tables:    pendingOf(w.tables),
			sensors:   pendingOf(w.sensors),
			notifiers: pendingOf(w.notifiers),
			weak:      pendingOf(w.weak),
		}
		hasEvent = w.queue.HasEvents()
		return hasEvent || !ready.empty()
	})

	// Move the head event to the in-flight slot while still holding the
	// monitor: a concurrent root scan sees it in the queue or in the slot,
	// never neither.
	var ev *DeferredEvent
	if hasEvent {
		ev = w.queue.Dequeue()
		w.inflight = ev
	}
	return ready, ev
}

func pendingOf(sources []WorkSource) []WorkSource {
	var pending []WorkSource
	for _, src := range sources {
		if src.HasPendingWork() {
			pending = append(pending, src)
		}
	}
	return pending
}

// dispatch services the snapshot in fixed priority order. Table maintenance
// precedes event delivery and notification so freshly unlinked entries are
// not redundantly visited downstream.
func (w *Worker) dispatch(ctx context.Context, ready readySet, ev *DeferredEvent) {
	w.performAll(ctx, ready.tables)
	if ev != nil {
		w.deliver(ctx, ev)
	}
	w.performAll(ctx, ready.sensors)
	w.performAll(ctx, ready.notifiers)
	w.performAll(ctx, ready.weak)
}

func (w *Worker) performAll(ctx context.Context, sources []WorkSource) {
	for _, src := range sources {
		if err := src.PerformPendingWork(ctx); err != nil {
			w.fail(fmt.Errorf("work source %s: %w", src.Name(), err))
		}
	}
}

func (w *Worker) deliver(ctx context.Context, ev *DeferredEvent) {
	err := w.sink.DeliverEvent(ctx, ev)
	// The slot is cleared whether or not delivery succeeded: there is no
	// per-event retry, and a failed event must not stay GC-pinned forever.
	w.monitor.Lock()
	w.inflight = nil
	w.monitor.Unlock()

	if err != nil {
		w.fail(fmt.Errorf("deliver deferred event %s: %w", ev.ID(), err))
		return
	}
	w.delivered.Add(1)
	w.logger.Debug("deferred event delivered",
		logging.String(logging.FieldEventID, ev.ID()),
		logging.String(logging.FieldEventKind, string(ev.Kind())),
	)
}

func (w *Worker) fail(err error) {
	w.failures.Add(1)
	w.logger.Error("maintenance dispatch failed", logging.Error(err))
	if w.onFailure == nil {
		panic(err)
	}
	w.onFailure(err)
}

// EnqueueDeferredEvent appends an event for later delivery and wakes the
// worker. Callable from any thread; calls are linearized by the monitor and
// delivery follows that linearization order exactly.
//
// The worker must already be running: events enqueued before then would be
// invisible to root scans and the collector could not keep their payloads
// alive. Calling earlier is a bootstrap-order bug.
func (w *Worker) EnqueueDeferredEvent(ev *DeferredEvent) {
	if !w.started.Load() {
		panic("maintenance: EnqueueDeferredEvent before worker start")
	}
	if ev == nil {
		panic("maintenance: EnqueueDeferredEvent with nil event")
	}
	w.monitor.Lock()
	w.queue.Enqueue(ev)
	w.monitor.Broadcast()
	w.monitor.Unlock()
}

// Wake signals the worker to re-evaluate its predicates. Work sources call
// it after flipping their pending flags.
func (w *Worker) Wake() {
	w.monitor.Lock()
	w.monitor.Broadcast()
	w.monitor.Unlock()
}

// ScanRoots visits every heap reference the worker is responsible for
// keeping alive: the in-flight event, then the queued events. Called by the
// collector during a global pause; the monitor is still taken because a
// producer can be mid-enqueue at the pause boundary.
func (w *Worker) ScanRoots(v heap.ObjectVisitor) {
	w.monitor.Lock()
	defer w.monitor.Unlock()
	if w.inflight != nil {
		w.inflight.VisitObjects(v)
	}
	w.queue.VisitObjects(v)
}

// ScanCodeUnits visits every code-unit reference the worker holds, for the
// collector's code-cache sweep pass. Same pause and locking contract as
// ScanRoots.
func (w *Worker) ScanCodeUnits(v heap.CodeVisitor) {
	w.monitor.Lock()
	defer w.monitor.Unlock()
	if w.inflight != nil {
		w.inflight.VisitCodeUnits(v)
	}
	w.queue.VisitCodeUnits(v)
}

// Status is a point-in-time snapshot of worker state.
type Status struct {
	QueueDepth     int
	InflightID     string
	Iterations     uint64
	Delivered      uint64
	DispatchErrors uint64
}

// Status reports the worker's current queue depth and counters.
func (w *Worker) Status() Status {
	w.monitor.Lock()
	depth := w.queue.Len()
	inflight := ""
	if w.inflight != nil {
		inflight = w.inflight.ID()
	}
	w.monitor.Unlock()
	return Status{
		QueueDepth:     depth,
		InflightID:     inflight,
		Iterations:     w.iterations.Load(),
		Delivered:      w.delivered.Load(),
		DispatchErrors: w.failures.Load(),
	}
}
