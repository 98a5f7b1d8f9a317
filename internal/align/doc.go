// Package align wraps the external sync estimator (ffsubsync CLI
// contract) behind a typed engine: run the tool, parse the reported
// linear time transform, apply it through the cue model with invariant
// checks intact.
package align
