// Package journal persists the history of delivered deferred events in a
// SQLite database under the runtime's state directory.
package journal
