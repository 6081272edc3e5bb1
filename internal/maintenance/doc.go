// Package maintenance implements the runtime's background service worker: a
// single dedicated goroutine that centralizes low-priority housekeeping so
// each subsystem does not need a thread of its own.
//
// Producers hand it deferred events through EnqueueDeferredEvent; maintenance
// collaborators (intern tables, low-memory sensors, notification channels,
// weak-reference tables) expose the WorkSource capability and nudge the
// worker with Wake after flipping their pending flags. The worker parks on a
// single monitor, snapshots all predicates atomically, and services ready
// work in a fixed priority order.
//
// The worker GC-roots every event it has accepted but not yet delivered.
// ScanRoots and ScanCodeUnits hand those references to the collector during a
// global pause, and the wait loop runs inside a safepoint-safe blocked region
// so a pause never stalls on a parked worker.
package maintenance
