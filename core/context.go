package core

import "context"

// Context keys for recomputation options
type contextKey string

const (
	runIDKey     contextKey = "runID"
	triggerKey   contextKey = "trigger"
	defaultRunID            = "adhoc"
)

// WithRunID tags the context with the sweep run ID used in logs.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// runIDFrom returns the run ID stored in ctx
func runIDFrom(ctx context.Context) string {
	val, ok := ctx.Value(runIDKey).(string)
	if !ok || val == "" {
		return defaultRunID
	}
	return val
}

// WithTrigger records what started a recomputation (schedule, import, cli).
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey, trigger)
}

// triggerFrom returns the trigger stored in ctx
func triggerFrom(ctx context.Context) string {
	val, ok := ctx.Value(triggerKey).(string)
	if !ok || val == "" {
		return "cli"
	}
	return val
}
