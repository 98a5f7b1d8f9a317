// Package pipeline drives batches of subtitle work. Each operation
// resolves its inputs, pairs subtitles with videos, and runs the pairs
// through a bounded worker pool with per-pair failure isolation, a
// retry budget for external-tool failures, and a ledger that lets
// re-runs skip completed pairs.
package pipeline
