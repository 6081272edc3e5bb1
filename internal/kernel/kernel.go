package kernel

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"veld/internal/config"
	"veld/internal/gcnotify"
	"veld/internal/heap"
	"veld/internal/interntable"
	"veld/internal/journal"
	"veld/internal/logging"
	"veld/internal/lowmem"
	"veld/internal/maintenance"
	"veld/internal/notify"
	"veld/internal/safepoint"
	"veld/internal/weaktable"
)

// Kernel is the runtime's top-level context. It owns the heap, the thread
// inventory, the maintenance worker and its work sources, and enforces
// single-instance execution. The worker handle it holds is the capability
// producers need; nothing can enqueue before Boot has succeeded.
type Kernel struct {
	cfg      *config.Config
	logger   *slog.Logger
	notifier notify.Service
	journal  *journal.Store

	heap     *heap.Heap
	registry *safepoint.Registry
	worker   *maintenance.Worker

	strings  *interntable.Table
	symbols  *interntable.Table
	weakRefs *weaktable.Table
	detector *lowmem.Detector
	gcEvents *gcnotify.Channel

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	allocated []*heap.Object // event payloads eligible for collection
	lastErr   error
	started   time.Time
}

// Boot constructs and starts the runtime kernel. Failure to start the
// maintenance worker is a resource-exhaustion condition; callers must treat
// any returned error as fatal and abort startup.
func Boot(cfg *config.Config, logger *slog.Logger) (*Kernel, error) {
	if cfg == nil {
		return nil, errors.New("kernel requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another veld daemon instance is already running")
	}

	store, err := journal.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open delivery journal: %w", err)
	}

	notifier := notify.NewService(cfg)
	k := &Kernel{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "kernel"),
		notifier: notifier,
		journal:  store,
		heap:     heap.New(cfg.HeapLimitBytes()),
		registry: safepoint.NewRegistry(cfg.Heap.ThreadSlots),
		strings:  interntable.New("string-table", heap.KindString, cfg.Maintenance.StringTableSweepThreshold, logger),
		symbols:  interntable.New("symbol-table", heap.KindSymbol, cfg.Maintenance.SymbolTableSweepThreshold, logger),
		weakRefs: weaktable.New("weak-ref-table", cfg.Maintenance.WeakTableUnlinkThreshold, logger),
		detector: lowmem.NewDetector(cfg, notifier, logger),
		gcEvents: gcnotify.New(cfg.Maintenance.GCRecordLimit, notifier, logger),
		lockPath: lockPath,
		lock:     lock,
		started:  time.Now(),
	}

	worker, err := maintenance.Start(maintenance.Config{
		Registry:          k.registry,
		Sink:              &deliverySink{kernel: k},
		Logger:            logger,
		TableSources:      []maintenance.WorkSource{k.strings, k.symbols},
		SensorSources:     []maintenance.WorkSource{k.detector},
		NotifierSources:   []maintenance.WorkSource{k.gcEvents},
		WeakSources:       []maintenance.WorkSource{k.weakRefs},
		OnDispatchFailure: k.handleDispatchFailure,
	})
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}
	k.worker = worker

	k.strings.SetWaker(worker.Wake)
	k.symbols.SetWaker(worker.Wake)
	k.weakRefs.SetWaker(worker.Wake)
	k.detector.SetWaker(worker.Wake)
	k.gcEvents.SetWaker(worker.Wake)

	k.heap.OnUsage(k.detector.Observe)
	k.heap.OnFree(k.strings.EntryDied)
	k.heap.OnFree(k.symbols.EntryDied)
	k.heap.OnFree(k.weakRefs.ReferentDied)

	k.logger.Info("veld kernel booted",
		logging.String("lock", lockPath),
		logging.Int64("heap_limit", k.heap.Limit()),
	)
	return k, nil
}

// Worker returns the maintenance worker handle, the producer-facing
// capability for deferred events.
func (k *Kernel) Worker() *maintenance.Worker { return k.worker }

// Heap returns the managed heap.
func (k *Kernel) Heap() *heap.Heap { return k.heap }

// Journal returns the delivery journal store.
func (k *Kernel) Journal() *journal.Store { return k.journal }

// Close releases resources held by the kernel. The maintenance worker has no
// stop operation; it terminates with the process.
func (k *Kernel) Close() error {
	var errs []error
	if k.journal != nil {
		if err := k.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if k.lock != nil {
		if err := k.lock.Unlock(); err != nil {
			k.logger.Warn("failed to release instance lock", logging.Error(err))
		}
	}
	return errors.Join(errs...)
}

// handleDispatchFailure is the well-defined handler above the maintenance
// subsystem: dispatch errors land here instead of tearing down the daemon.
func (k *Kernel) handleDispatchFailure(err error) {
	k.mu.Lock()
	k.lastErr = err
	k.mu.Unlock()
	k.logger.Error("maintenance dispatch failure",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notification webhook and journal storage"),
	)
}

// LastError returns the most recent dispatch failure, if any.
func (k *Kernel) LastError() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.lastErr
}
