package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RunContext tracks one node execution for tracing and metrics.
type RunContext struct {
	NodeID    string
	PipeName  string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRunContext creates a run context. A nil Metrics skips recording.
func NewRunContext(nodeID, pipeName string, metrics *Metrics) *RunContext {
	return &RunContext{
		NodeID:    nodeID,
		PipeName:  pipeName,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// runContextKey is the context key for RunContext.
type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// StartSpan starts the node-execution span with the run's attributes.
func (rc *RunContext) StartSpan(ctx context.Context) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, SpanNodeRun)
	span.SetAttributes(
		attribute.String(AttrNodeID, rc.NodeID),
		attribute.String(AttrPipeName, rc.PipeName),
	)
	return ctx, span
}

// End closes the span and records the node-run metrics.
func (rc *RunContext) End(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(rc.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	rc.Metrics.RecordNodeRun(ctx, rc.NodeID, rc.PipeName, status, duration)
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
