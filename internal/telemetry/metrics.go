package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the OTEL instruments for pipeline stage events.
type Metrics struct {
	stageTotal       metric.Int64Counter
	stageFailedTotal metric.Int64Counter
	stageDuration    metric.Float64Histogram
	compressionRatio metric.Float64Histogram
	outputWords      metric.Int64Histogram

	initialized bool
}

// NewMetrics creates instruments on the given meter. A nil meter uses the
// global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	m := &Metrics{}
	var err error

	m.stageTotal, err = meter.Int64Counter(
		"spr.stage.total",
		metric.WithDescription("Total pipeline stage executions"),
		metric.WithUnit("{stage}"),
	)
	if err != nil {
		return nil, err
	}

	m.stageFailedTotal, err = meter.Int64Counter(
		"spr.stage.failed.total",
		metric.WithDescription("Pipeline stage executions that returned an error"),
		metric.WithUnit("{stage}"),
	)
	if err != nil {
		return nil, err
	}

	m.stageDuration, err = meter.Float64Histogram(
		"spr.stage.duration.seconds",
		metric.WithDescription("Duration of pipeline stage executions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.compressionRatio, err = meter.Float64Histogram(
		"spr.compression.ratio",
		metric.WithDescription("Achieved compression ratio per document"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.outputWords, err = meter.Int64Histogram(
		"spr.stage.output.words",
		metric.WithDescription("Words produced by a pipeline stage"),
		metric.WithUnit("{word}"),
	)
	if err != nil {
		return nil, err
	}

	m.initialized = true
	return m, nil
}

// RecordStage records one stage event. Safe on a nil or uninitialized
// receiver.
func (m *Metrics) RecordStage(ctx context.Context, ev Event) {
	if m == nil || !m.initialized {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("pipeline", ev.Pipeline),
		attribute.String("stage", ev.Stage),
	)

	m.stageTotal.Add(ctx, 1, attrs)
	if !ev.Success {
		m.stageFailedTotal.Add(ctx, 1, attrs)
	}
	m.stageDuration.Record(ctx, ev.Duration.Seconds(), attrs)
	if ev.OutputWords > 0 {
		m.outputWords.Record(ctx, int64(ev.OutputWords), attrs)
	}
	if ev.Ratio > 0 {
		m.compressionRatio.Record(ctx, ev.Ratio,
			metric.WithAttributes(attribute.String("pipeline", ev.Pipeline)))
	}
}

// OTelSink records stage events as OTEL metrics. Spans are the pipeline
// runner's job; this sink only feeds instruments.
type OTelSink struct {
	metrics *Metrics
}

// NewOTelSink builds instruments on tel's meter.
func NewOTelSink(tel *Telemetry) (*OTelSink, error) {
	m, err := NewMetrics(tel.Meter(InstrumentationName))
	if err != nil {
		return nil, err
	}
	return &OTelSink{metrics: m}, nil
}

func (s *OTelSink) Emit(ctx context.Context, ev Event) {
	s.metrics.RecordStage(ctx, ev)
}

// Close is a no-op; exporter shutdown belongs to the Telemetry owner.
func (s *OTelSink) Close(context.Context) error { return nil }
