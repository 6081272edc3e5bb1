// Package notify delivers runtime notifications to an external observer over
// an ntfy-compatible webhook. An unconfigured webhook yields a noop service
// so callers never branch on configuration.
package notify
