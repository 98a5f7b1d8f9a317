// Package logging assembles structured slog loggers and formatting helpers
// used across the pipeline.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with run IDs, pair names, and stages. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Log output defaults to stderr so command results printed on stdout stay
// machine readable. Prefer these constructors over hand-rolled slog setup to
// ensure new components emit data with the same shape as the rest of the
// system.
package logging
