package services

import "context"

type contextKey string

const (
	runIDContextKey contextKey = "newsreel.run_id"
	stageContextKey contextKey = "newsreel.stage"
)

// WithRunID stores the pipeline run identifier in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDContextKey, runID)
}

// RunIDFromContext extracts the pipeline run identifier from the context.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDContextKey).(string)
	return id, ok && id != ""
}

// WithStage stores the active stage name in the context.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageContextKey, stage)
}

// StageFromContext extracts the active stage name from the context.
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	stage, ok := ctx.Value(stageContextKey).(string)
	return stage, ok && stage != ""
}
