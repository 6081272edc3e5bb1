// Package weaktable provides the weak-reference table whose dead entries are
// unlinked asynchronously by the maintenance worker rather than on the
// mutator paths that discover the deaths.
package weaktable
