// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// ContextFields extracts correlation data from context: trace identity
// (preferring a live OpenTelemetry span over the pipeline trace value),
// the document being processed, and the active stage.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	} else if tc, ok := tracing.FromContext(ctx); ok {
		fields = append(fields,
			zap.String("trace_id", tc.TraceID),
			zap.String("span_id", tc.SpanID),
		)
	}

	if doc := DocumentFromContext(ctx); doc != "" {
		fields = append(fields, zap.String("document", doc))
	}
	if stage := StageFromContext(ctx); stage != "" {
		fields = append(fields, zap.String("stage", stage))
	}

	return fields
}

// Context key types
type documentCtxKey struct{}
type stageCtxKey struct{}
type loggerCtxKey struct{}

// WithDocument records the document path or name being processed.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, documentCtxKey{}, path)
}

// DocumentFromContext extracts the document path from context.
func DocumentFromContext(ctx context.Context) string {
	if d, ok := ctx.Value(documentCtxKey{}).(string); ok {
		return d
	}
	return ""
}

// WithStage records the pipeline stage currently executing.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageCtxKey{}, stage)
}

// StageFromContext extracts the active stage name from context.
func StageFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(stageCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context, falling back to a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return Nop()
}
