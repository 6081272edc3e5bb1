// Package logging centralizes slog logger construction and the standardized
// structured field names used across the runtime. All components log through
// loggers built here so console and JSON output stay consistent.
package logging
