package lowmem

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/pbnjay/memory"

	"veld/internal/config"
	"veld/internal/logging"
	"veld/internal/notify"
)

// hostPollInterval bounds how often the allocation-path hook re-reads host
// memory counters.
const hostPollInterval = 5 * time.Second

// Detector watches heap and host memory and raises sensor notifications
// through the maintenance worker. Threshold checks run on the allocation
// path via Observe and must stay cheap; alert delivery is deferred to
// PerformPendingWork on the worker thread.
type Detector struct {
	heapSensor *Sensor
	hostSensor *Sensor

	heapPercent  int
	hostFloor    uint64
	processLimit uint64

	pending atomic.Bool
	wake    atomic.Pointer[func()]

	lastHostPoll atomic.Int64 // unix nanos

	notifier notify.Service
	logger   *slog.Logger
}

// NewDetector constructs the low-memory detector from maintenance config.
// The process memory limit is resolved from the cgroup when available,
// falling back to total host memory.
func NewDetector(cfg *config.Config, notifier notify.Service, logger *slog.Logger) *Detector {
	cooldown := time.Duration(cfg.Maintenance.SensorCooldownSeconds) * time.Second

	limit, err := memlimit.FromCgroup()
	if err != nil || limit == 0 {
		limit = memory.TotalMemory()
	}

	return &Detector{
		heapSensor:   newSensor("heap-usage", cooldown),
		hostSensor:   newSensor("host-memory", cooldown),
		heapPercent:  cfg.Maintenance.HeapUsagePercent,
		hostFloor:    uint64(cfg.Maintenance.HostMinAvailableMiB) << 20,
		processLimit: limit,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "low-memory-detector"),
	}
}

// Observe is the allocation-path hook: it checks the heap-usage sensor on
// every call and the host sensor at most once per poll interval. Wired to
// the heap's usage observer by the kernel.
func (d *Detector) Observe(used, limit int64) {
	now := time.Now()
	tripped := false

	if limit > 0 {
		threshold := uint64(limit) * uint64(d.heapPercent) / 100
		if uint64(used) >= threshold && d.heapSensor.trip(uint64(used), threshold, now) {
			tripped = true
		}
	}

	if d.hostFloor > 0 && d.shouldPollHost(now) {
		available := hostAvailableMemory()
		if available > 0 && available < d.hostFloor && d.hostSensor.trip(available, d.hostFloor, now) {
			tripped = true
		}
	}

	if tripped && d.pending.CompareAndSwap(false, true) {
		if wake := d.wake.Load(); wake != nil {
			(*wake)()
		}
	}
}

func (d *Detector) shouldPollHost(now time.Time) bool {
	last := d.lastHostPoll.Load()
	if now.UnixNano()-last < int64(hostPollInterval) {
		return false
	}
	return d.lastHostPoll.CompareAndSwap(last, now.UnixNano())
}

// SetWaker installs the worker wake callback.
func (d *Detector) SetWaker(wake func()) {
	d.wake.Store(&wake)
}

// ProcessLimit returns the resolved process memory ceiling in bytes.
func (d *Detector) ProcessLimit() uint64 { return d.processLimit }

// Sensors returns the detector's sensors, for status reporting.
func (d *Detector) Sensors() []*Sensor {
	return []*Sensor{d.heapSensor, d.hostSensor}
}

// Name implements maintenance.WorkSource.
func (d *Detector) Name() string { return "low-memory-detector" }

// HasPendingWork implements maintenance.WorkSource.
func (d *Detector) HasPendingWork() bool { return d.pending.Load() }

// PerformPendingWork delivers alerts for every tripped sensor.
func (d *Detector) PerformPendingWork(ctx context.Context) error {
	d.pending.Store(false)
	now := time.Now()

	for _, sensor := range []*Sensor{d.heapSensor, d.hostSensor} {
		r, ok := sensor.consume(now)
		if !ok {
			continue
		}
		d.logger.Warn("memory sensor tripped",
			logging.String(logging.FieldSensor, sensor.Name()),
			logging.Uint64("used", r.used),
			logging.Uint64("threshold", r.threshold),
		)
		if err := d.notifier.SensorAlert(ctx, sensor.Name(), r.used, r.threshold); err != nil {
			return err
		}
	}
	return nil
}
