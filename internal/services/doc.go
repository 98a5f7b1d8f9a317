// Package services defines shared utilities consumed by the pipeline stages
// and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pair names, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the taxonomy reported by run summaries (input, arity, tool,
//     timeout, invariant, io, unavailable).
//   - The Retryable predicate that decides which failures the driver may
//     re-attempt when retries are enabled.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across commands.
package services
