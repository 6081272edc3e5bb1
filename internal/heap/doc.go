// Package heap provides the managed-object model the maintenance subsystem
// operates over: object and code-unit handles, liveness tracking, usage
// accounting, and the visitor types used by collector root scans.
//
// The heap here is deliberately small. It exists so deferred events have real
// references to keep alive, so the intern and weak tables have referents that
// can die, and so the low-memory detector has usage to observe. Collection
// policy belongs to the surrounding runtime, not to this package.
package heap
