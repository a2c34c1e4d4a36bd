// Package logging provides structured logging utilities for periscope.
//
// This package centralizes logging patterns to ensure consistent,
// structured logging throughout the codebase using the standard
// library's slog package: a single constructor for the process logger
// and attribute helpers with fixed key names so report runs can be
// correlated across backends.
package logging
