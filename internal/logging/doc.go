// Package logging assembles the structured slog loggers used across keyflow.
//
// It owns the console/JSON handler selection, centralizes level parsing, and
// exposes typed attribute helpers plus the standard field keys so negotiation
// code tags log lines with key-system identifiers, step names, and request
// IDs in one consistent shape. A no-op logger is provided for tests and
// wiring code that cannot fail.
package logging
