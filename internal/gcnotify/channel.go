package gcnotify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"veld/internal/logging"
	"veld/internal/notify"
)

// Record describes one completed garbage-collection cycle.
type Record struct {
	ID         string
	Cause      string
	FreedBytes int64
	Pause      time.Duration
	FinishedAt time.Time
}

// Channel queues GC records for asynchronous delivery by the maintenance
// worker. The backlog is bounded; when full, the oldest record is dropped
// rather than blocking the collector.
type Channel struct {
	limit int

	mu      sync.Mutex
	records []Record
	dropped int64

	pending atomic.Bool
	wake    atomic.Pointer[func()]

	notifier  notify.Service
	logger    *slog.Logger
	delivered atomic.Int64
}

// New constructs a channel holding at most limit undelivered records.
func New(limit int, notifier notify.Service, logger *slog.Logger) *Channel {
	if limit <= 0 {
		limit = 64
	}
	return &Channel{
		limit:    limit,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "gc-notifier"),
	}
}

// SetWaker installs the worker wake callback.
func (c *Channel) SetWaker(wake func()) {
	c.wake.Store(&wake)
}

// Publish queues a record and wakes the worker. Called by the collector at
// the end of a cycle; never blocks.
func (c *Channel) Publish(rec Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}

	c.mu.Lock()
	if len(c.records) >= c.limit {
		c.records = c.records[1:]
		c.dropped++
	}
	c.records = append(c.records, rec)
	c.mu.Unlock()

	if c.pending.CompareAndSwap(false, true) {
		if wake := c.wake.Load(); wake != nil {
			(*wake)()
		}
	}
}

// Name implements maintenance.WorkSource.
func (c *Channel) Name() string { return "gc-notifier" }

// HasPendingWork implements maintenance.WorkSource.
func (c *Channel) HasPendingWork() bool { return c.pending.Load() }

// PerformPendingWork drains the backlog, delivering each record in order.
func (c *Channel) PerformPendingWork(ctx context.Context) error {
	c.pending.Store(false)

	c.mu.Lock()
	batch := c.records
	c.records = nil
	c.mu.Unlock()

	for _, rec := range batch {
		if err := c.notifier.GCCycle(ctx, rec.Cause, rec.FreedBytes, rec.Pause); err != nil {
			return err
		}
		c.delivered.Add(1)
		c.logger.Debug("gc notification delivered",
			logging.String("cause", rec.Cause),
			logging.Int64("freed_bytes", rec.FreedBytes),
			logging.Duration("pause", rec.Pause),
		)
	}
	return nil
}

// Delivered returns the number of records delivered so far.
func (c *Channel) Delivered() int64 { return c.delivered.Load() }

// Dropped returns the number of records discarded to bound the backlog.
func (c *Channel) Dropped() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
