package telemetry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/logging"
)

// Event is a single pipeline stage observation.
type Event struct {
	TraceID  string `json:"trace_id"`
	SpanID   string `json:"span_id,omitempty"`
	Pipeline string `json:"pipeline"`
	Stage    string `json:"stage"`
	// Document is the source path, or "-" for stdin.
	Document    string        `json:"document,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	InputWords  int           `json:"input_words,omitempty"`
	OutputWords int           `json:"output_words,omitempty"`
	// Ratio is the achieved compression ratio, set on compression
	// output stages only.
	Ratio   float64 `json:"ratio,omitempty"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// Collector receives stage events. Emit must not block the caller; sinks
// that cannot keep up drop events.
type Collector interface {
	Emit(ctx context.Context, ev Event)
	Close(ctx context.Context) error
}

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

func (Nop) Close(context.Context) error { return nil }

// Multi fans events out to several sinks.
type Multi struct {
	sinks []Collector
}

// NewMulti wraps the given sinks. Nil sinks are skipped.
func NewMulti(sinks ...Collector) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m.sinks {
		s.Emit(ctx, ev)
	}
}

func (m *Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewCollector builds the collector described by cfg.Sinks.
//
// A sink that fails to initialize is logged and skipped rather than failing
// startup; telemetry is best-effort by contract. With no usable sinks the
// returned collector is a Nop.
func NewCollector(ctx context.Context, cfg config.TelemetryConfig, tel *Telemetry, logger *logging.Logger) Collector {
	if !cfg.Enabled || len(cfg.Sinks) == 0 {
		return Nop{}
	}
	if logger == nil {
		logger = logging.Nop()
	}

	var sinks []Collector
	for _, name := range cfg.Sinks {
		var (
			sink Collector
			err  error
		)
		switch name {
		case "sqlite":
			var path string
			if path, err = config.ExpandHome(cfg.SQLite.Path); err == nil {
				sink, err = NewSQLiteSink(path, logger)
			}
		case "nats":
			sink, err = NewNATSSink(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logger)
		case "otlp":
			sink, err = NewOTelSink(tel)
		default:
			// Unknown names are rejected by config validation; skip here
			// so a stale config cannot take the process down.
			logger.Warn(ctx, "ignoring unknown telemetry sink", zap.String("sink", name))
			continue
		}
		if err != nil {
			logger.Warn(ctx, "telemetry sink disabled",
				zap.String("sink", name),
				zap.Error(err))
			continue
		}
		sinks = append(sinks, sink)
	}

	if len(sinks) == 0 {
		return Nop{}
	}
	return NewMulti(sinks...)
}
