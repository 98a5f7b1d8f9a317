package services

import "context"

type contextKey string

const (
	runIDKey contextKey = "run_id"
	pairKey  contextKey = "pair"
	stageKey contextKey = "stage"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPair annotates context with the name of the pair being processed.
func WithPair(ctx context.Context, pair string) context.Context {
	if pair == "" {
		return ctx
	}
	return context.WithValue(ctx, pairKey, pair)
}

// PairFromContext returns the pair name if present.
func PairFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(pairKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
