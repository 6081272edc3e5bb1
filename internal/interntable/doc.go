// Package interntable provides the interned-string and symbol tables whose
// dead-entry compaction is deferred to the maintenance worker. Each table is
// a maintenance.WorkSource: referent deaths accumulate until a threshold,
// the table flags pending work and wakes the worker, and the worker sweeps
// on its own thread.
package interntable
