// Package pipeline runs ordered stages with tracing, logging, and stage
// event emission shared by the compression and decompression pipelines.
package pipeline

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

const tracerName = "github.com/fyrsmithlabs/spr/internal/pipeline"

// Stage transforms one pipeline value into the next.
type Stage[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
}

// StageError reports which stage of which pipeline failed.
type StageError struct {
	Pipeline string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s/%s: %v", e.Pipeline, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Runner carries the instrumentation shared by every stage of one pipeline
// run.
type Runner struct {
	Pipeline  string
	Document  string
	Logger    *logging.Logger
	Collector telemetry.Collector
	tracer    oteltrace.Tracer
}

// NewRunner builds a runner for the named pipeline. nil logger, collector,
// and telemetry degrade to no-ops.
func NewRunner(name, document string, logger *logging.Logger, collector telemetry.Collector, tel *telemetry.Telemetry) *Runner {
	if logger == nil {
		logger = logging.Nop()
	}
	if collector == nil {
		collector = telemetry.Nop{}
	}
	tracer := otel.Tracer(tracerName)
	if tel != nil {
		tracer = tel.Tracer(tracerName)
	}
	return &Runner{
		Pipeline:  name,
		Document:  document,
		Logger:    logger,
		Collector: collector,
		tracer:    tracer,
	}
}

// Run executes one stage under the runner's instrumentation.
//
// Cancellation lands at stage boundaries: a context canceled mid-stage lets
// the in-flight stage finish and aborts before the next one starts. Stage
// failures come back as *StageError wrapping the cause.
func Run[In, Out any](ctx context.Context, r *Runner, stage Stage[In, Out], in In) (Out, error) {
	var zero Out

	if err := ctx.Err(); err != nil {
		return zero, &StageError{Pipeline: r.Pipeline, Stage: stage.Name(), Err: err}
	}

	ctx, tctx := tracing.Ensure(ctx)
	ctx = logging.WithStage(ctx, stage.Name())

	ctx, span := r.tracer.Start(ctx, r.Pipeline+"."+stage.Name(),
		oteltrace.WithAttributes(
			attribute.String("spr.trace_id", tctx.TraceID),
			attribute.String("spr.pipeline", r.Pipeline),
			attribute.String("spr.document", r.Document),
		),
	)
	defer span.End()

	start := time.Now()
	r.Logger.Trace(ctx, "stage start")

	// In-flight stages run to completion; the boundary check above is the
	// only place pipeline cancellation takes effect.
	out, err := stage.Run(context.WithoutCancel(ctx), in)
	elapsed := time.Since(start)

	ev := telemetry.Event{
		TraceID:     tctx.TraceID,
		SpanID:      tctx.SpanID,
		Pipeline:    r.Pipeline,
		Stage:       stage.Name(),
		Document:    r.Document,
		StartedAt:   start,
		Duration:    elapsed,
		InputWords:  words(in),
		OutputWords: words(out),
		Success:     err == nil,
	}

	if err != nil {
		ev.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.Collector.Emit(ctx, ev)
		r.Logger.Warn(ctx, "stage failed",
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return zero, &StageError{Pipeline: r.Pipeline, Stage: stage.Name(), Err: err}
	}

	span.SetAttributes(
		attribute.Int("spr.words.in", ev.InputWords),
		attribute.Int("spr.words.out", ev.OutputWords),
	)
	r.Collector.Emit(ctx, ev)
	r.Logger.Debug(ctx, "stage complete",
		zap.Duration("elapsed", elapsed),
		zap.Int("words_in", ev.InputWords),
		zap.Int("words_out", ev.OutputWords))

	return out, nil
}

// Emit records a pipeline-level event outside any stage, such as the final
// ratio of a compression run.
func (r *Runner) Emit(ctx context.Context, stage string, ev telemetry.Event) {
	tctx, _ := tracing.FromContext(ctx)
	ev.TraceID = tctx.TraceID
	ev.SpanID = tctx.SpanID
	ev.Pipeline = r.Pipeline
	ev.Stage = stage
	ev.Document = r.Document
	if ev.StartedAt.IsZero() {
		ev.StartedAt = time.Now()
	}
	r.Collector.Emit(ctx, ev)
}

// words measures stage values that can report a word count. Failed stages
// hand back their type's zero value; for pointer types that is a typed nil
// that cannot be asked.
func words(v any) int {
	if wc, ok := v.(interface{ WordCount() int }); ok {
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return 0
		}
		return wc.WordCount()
	}
	return 0
}
