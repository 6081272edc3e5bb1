// Package gcnotify queues garbage-collection cycle notifications for
// delivery off the collector's critical path, via the maintenance worker.
package gcnotify
