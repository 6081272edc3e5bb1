package kernel

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"veld/internal/gcnotify"
	"veld/internal/heap"
	"veld/internal/journal"
	"veld/internal/logging"
	"veld/internal/maintenance"
)

// InjectEvent allocates payload objects and code units, builds a deferred
// event around them, and enqueues it for delivery. The payload objects
// become garbage once the event is delivered and are reclaimed by the next
// collection.
func (k *Kernel) InjectEvent(kind maintenance.Kind, message string, objectCount, codeCount int) (string, error) {
	if objectCount < 0 || codeCount < 0 {
		return "", fmt.Errorf("negative reference counts (%d objects, %d code units)", objectCount, codeCount)
	}

	objects := make([]*heap.Object, 0, objectCount)
	for i := 0; i < objectCount; i++ {
		obj, err := k.heap.Allocate(heap.KindPlain, 64)
		if err != nil {
			return "", fmt.Errorf("allocate event payload: %w", err)
		}
		objects = append(objects, obj)
	}
	code := make([]*heap.CodeUnit, 0, codeCount)
	for i := 0; i < codeCount; i++ {
		unit, err := k.heap.AllocateCode(fmt.Sprintf("stub-%d", i), 256)
		if err != nil {
			return "", fmt.Errorf("allocate event code unit: %w", err)
		}
		code = append(code, unit)
	}

	ev, err := maintenance.NewDeferredEvent(kind, message, objects, code)
	if err != nil {
		return "", err
	}

	k.mu.Lock()
	k.allocated = append(k.allocated, objects...)
	k.mu.Unlock()

	k.worker.EnqueueDeferredEvent(ev)
	return ev.ID(), nil
}

// RunGC performs a stop-the-world collection pass: it pauses the world,
// gathers the maintenance worker's roots, frees every tracked payload object
// not reachable from them, resumes, and publishes a cycle record for
// asynchronous delivery.
func (k *Kernel) RunGC(cause string) gcnotify.Record {
	cause = strings.TrimSpace(cause)
	if cause == "" {
		cause = "manual"
	}

	start := time.Now()
	k.registry.StopTheWorld()

	reachable := make(map[uint64]struct{})
	k.worker.ScanRoots(heap.ObjectVisitorFunc(func(obj *heap.Object) {
		reachable[obj.ID()] = struct{}{}
	}))
	k.worker.ScanCodeUnits(heap.CodeVisitorFunc(func(*heap.CodeUnit) {}))

	var freed int64
	k.mu.Lock()
	live := k.allocated[:0]
	for _, obj := range k.allocated {
		if _, ok := reachable[obj.ID()]; ok {
			live = append(live, obj)
			continue
		}
		freed += obj.Size()
		k.heap.Free(obj)
	}
	k.allocated = live
	k.mu.Unlock()

	k.registry.Resume()
	pause := time.Since(start)

	rec := gcnotify.Record{Cause: cause, FreedBytes: freed, Pause: pause}
	k.gcEvents.Publish(rec)
	k.logger.Info("gc cycle complete",
		logging.String("cause", cause),
		logging.Int64("freed_bytes", freed),
		logging.Duration("pause", pause),
	)
	return rec
}

// Churn interns count unique strings and symbols, registers weak references
// to them, then frees a portion, exercising the table-maintenance sources.
// It exists for soak testing and diagnostics.
func (k *Kernel) Churn(count int) error {
	if count <= 0 {
		return fmt.Errorf("churn count %d must be positive", count)
	}

	stamp := time.Now().UnixNano()
	for i := 0; i < count; i++ {
		str, err := k.strings.Intern(fmt.Sprintf("str-%d-%d", stamp, i), k.heap)
		if err != nil {
			return fmt.Errorf("intern string: %w", err)
		}
		sym, err := k.symbols.Intern(fmt.Sprintf("sym-%d-%d", stamp, i), k.heap)
		if err != nil {
			return fmt.Errorf("intern symbol: %w", err)
		}
		k.weakRefs.Add(str)
		k.weakRefs.Add(sym)

		// Retire half of the interned pairs immediately so dead-entry
		// accounting advances toward the sweep thresholds.
		if i%2 == 0 {
			k.heap.Free(str)
			k.heap.Free(sym)
		}
	}
	return nil
}

// TestNotification pushes a test message through the notification channel.
func (k *Kernel) TestNotification(ctx context.Context) error {
	return k.notifier.Test(ctx)
}

// RecentDeliveries reads the newest journal entries.
func (k *Kernel) RecentDeliveries(ctx context.Context, limit int) ([]journal.Delivery, error) {
	return k.journal.Recent(ctx, limit)
}

// TableStatus summarizes one maintenance table.
type TableStatus struct {
	Name    string
	Entries int
	Dead    int
	Removed int64
}

// Status is a point-in-time snapshot of kernel state.
type Status struct {
	PID          int
	Uptime       time.Duration
	HeapUsed     int64
	HeapLimit    int64
	LiveObjects  int64
	FreedObjects int64
	Worker       maintenance.Status
	Tables       []TableStatus
	SensorTrips  map[string]int64
	GCDelivered  int64
	GCDropped    int64
	JournalCount int64
	LockPath     string
	LastError    string
}

// Status reports current kernel and worker state.
func (k *Kernel) Status(ctx context.Context) Status {
	journalCount, err := k.journal.Count(ctx)
	if err != nil {
		k.logger.Warn("journal count failed", logging.Error(err))
	}

	trips := make(map[string]int64)
	for _, sensor := range k.detector.Sensors() {
		trips[sensor.Name()] = sensor.Trips()
	}

	status := Status{
		PID:          os.Getpid(),
		Uptime:       time.Since(k.started),
		HeapUsed:     k.heap.Used(),
		HeapLimit:    k.heap.Limit(),
		LiveObjects:  k.heap.ObjectCount(),
		FreedObjects: k.heap.FreedObjects(),
		Worker:       k.worker.Status(),
		Tables: []TableStatus{
			{Name: k.strings.Name(), Entries: k.strings.Len(), Dead: k.strings.DeadCount(), Removed: k.strings.Swept()},
			{Name: k.symbols.Name(), Entries: k.symbols.Len(), Dead: k.symbols.DeadCount(), Removed: k.symbols.Swept()},
			{Name: k.weakRefs.Name(), Entries: k.weakRefs.Len(), Removed: k.weakRefs.Unlinked()},
		},
		SensorTrips:  trips,
		GCDelivered:  k.gcEvents.Delivered(),
		GCDropped:    k.gcEvents.Dropped(),
		JournalCount: journalCount,
		LockPath:     k.lockPath,
	}
	if err := k.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
