// Package compress implements the seven-stage compression pipeline that
// turns a source document into a sparse priming representation.
//
// Stages run strictly in order, each consuming the prior stage's complete
// output: ValidateInput, AnalyzeContent, ExtractConcepts,
// GenerateStatements, ValidateCompression, OptimizeStatements,
// FormatOutput. Any stage failure is terminal for the document and is
// reported with the originating stage attached; no stage returns a
// partially built document.
package compress

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/pipeline"
	"github.com/fyrsmithlabs/spr/internal/redact"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// timeNow is swapped in tests to pin generation timestamps.
var timeNow = time.Now

// Deps are the collaborators shared by every compression run.
type Deps struct {
	Generative generative.Service
	// Scrubber redacts secrets from text bound for the generative backend.
	// nil or disabled means text passes through untouched.
	Scrubber  *redact.Scrubber
	Logger    *logging.Logger
	Collector telemetry.Collector
	Telemetry *telemetry.Telemetry
}

// Pipeline compresses documents. Safe for concurrent use; batch workers
// share one instance.
type Pipeline struct {
	cfg  config.CompressionConfig
	deps Deps
}

// New builds a compression pipeline. A nil logger or collector degrades to
// a no-op.
func New(cfg config.CompressionConfig, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Collector == nil {
		deps.Collector = telemetry.Nop{}
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Compress runs the full stage sequence and returns the finished SPR
// document. The source document is never mutated.
func (p *Pipeline) Compress(ctx context.Context, req Request) (*spr.Document, error) {
	if req.Format == "" {
		req.Format = spr.Format(p.cfg.DefaultFormat)
	}
	if req.Ratio == 0 {
		req.Ratio = p.cfg.DefaultRatio
	}
	if !req.Format.Valid() {
		return nil, spr.ErrUnknownFormat
	}
	if err := spr.ValidateRatio(req.Ratio); err != nil {
		return nil, err
	}

	ctx, tctx := tracing.Ensure(ctx)
	ctx = logging.WithDocument(ctx, docLabel(req.Source))
	start := timeNow()

	r := pipeline.NewRunner("compress", docLabel(req.Source), p.deps.Logger, p.deps.Collector, p.deps.Telemetry)
	gen := generator{
		svc:      p.deps.Generative,
		scrubber: p.deps.Scrubber,
		format:   req.Format,
	}

	src, err := pipeline.Run(ctx, r, validateInput{minWords: p.cfg.MinWords}, req.Source)
	if err != nil {
		return nil, err
	}

	analysis, err := pipeline.Run(ctx, r, analyzeContent{format: req.Format, ratio: req.Ratio}, src)
	if err != nil {
		return nil, err
	}

	concepts, err := pipeline.Run(ctx, r, extractConcepts{}, analysis)
	if err != nil {
		return nil, err
	}

	draft, err := pipeline.Run(ctx, r, generateStatements{gen: gen}, concepts)
	if err != nil {
		return nil, err
	}

	draft, err = pipeline.Run(ctx, r, validateCompression{
		gen:       gen,
		threshold: p.cfg.ViolationThreshold,
		retries:   p.cfg.GenerationRetries,
	}, draft)
	if err != nil {
		return nil, err
	}

	draft, err = pipeline.Run(ctx, r, optimizeStatements{
		threshold: p.cfg.DedupThreshold,
		logger:    p.deps.Logger,
	}, draft)
	if err != nil {
		return nil, err
	}

	doc, err := pipeline.Run(ctx, r, formatOutput{format: req.Format}, draft)
	if err != nil {
		return nil, err
	}

	r.Emit(ctx, "Complete", telemetry.Event{
		StartedAt:   start,
		Duration:    timeNow().Sub(start),
		InputWords:  doc.Meta.OriginalWords,
		OutputWords: doc.Meta.CompressedWords,
		Ratio:       doc.Meta.Ratio,
		Success:     true,
	})
	p.deps.Logger.Info(ctx, "compression complete",
		zap.String("trace_id", tctx.TraceID),
		zap.Int("statements", len(doc.Statements)),
		zap.Int("original_words", doc.Meta.OriginalWords),
		zap.Int("compressed_words", doc.Meta.CompressedWords),
		zap.Float64("ratio", doc.Meta.Ratio),
		zap.Float64("target_ratio", req.Ratio))

	return doc, nil
}

// docLabel names a source for logs and telemetry.
func docLabel(src spr.SourceDocument) string {
	if src.Path != "" {
		return src.Path
	}
	return "inline"
}
