// Package kernel wires the runtime together: heap, thread inventory,
// maintenance worker, work sources, notification delivery, and the journal.
// It enforces single-instance execution with a file lock and is the
// well-defined handler for maintenance dispatch failures.
//
// Orchestration lives here; the individual subsystems stay in their own
// packages and know nothing about each other's wiring.
package kernel
