// Package roundtrip drives a full compress-then-decompress cycle over one
// document and scores the result.
//
// Both legs share a single trace context, so every stage event from the
// cycle carries the same trace id. A quality regression, where the
// achieved compression ratio overshoots the requested target beyond
// tolerance, is a warning on an otherwise successful result, never an
// error: the cycle always completes.
package roundtrip

import (
	"context"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// Request asks for one document to be compressed and reconstructed.
// Zero-valued options fall back to configured defaults.
type Request struct {
	Source    spr.SourceDocument
	Format    spr.Format
	Ratio     float64
	Expansion spr.ExpansionType
	Length    spr.TargetLength
}

// Result carries both legs of a completed cycle and its quality scores.
type Result struct {
	Doc      *spr.Document
	Expanded *spr.ExpandedDocument
	Metrics  quality.Metrics
	// Verdict is the quality-gate decision over Metrics.
	Verdict quality.Verdict
	// Regressed is set when the achieved compression ratio overshot
	// TargetRatio beyond the configured tolerance. Soft: the cycle still
	// completed and both documents are valid.
	Regressed   bool
	TargetRatio float64
}

// Deps are the collaborators a tester drives.
type Deps struct {
	Compress   *compress.Pipeline
	Decompress *decompress.Pipeline
	Validator  *quality.Validator
	Logger     *logging.Logger
}

// Tester runs round-trip cycles. Safe for concurrent use.
type Tester struct {
	cfg  config.CompressionConfig
	deps Deps
}

// New builds a tester. A nil logger degrades to a no-op; a nil validator
// disables gates and regression checks.
func New(cfg config.CompressionConfig, deps Deps) *Tester {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Validator == nil {
		deps.Validator = quality.New(config.QualityConfig{})
	}
	return &Tester{cfg: cfg, deps: deps}
}

// Run compresses the source, reconstructs prose from the encoded result,
// and measures the round trip. The decompression leg parses the same
// bytes a .spr file would hold, so the persisted format is exercised on
// every cycle.
func (t *Tester) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Format == "" {
		req.Format = spr.Format(t.cfg.DefaultFormat)
	}
	if req.Ratio == 0 {
		req.Ratio = t.cfg.DefaultRatio
	}

	ctx, tctx := tracing.Ensure(ctx)

	doc, err := t.deps.Compress.Compress(ctx, compress.Request{
		Source: req.Source,
		Format: req.Format,
		Ratio:  req.Ratio,
	})
	if err != nil {
		return nil, err
	}

	expanded, err := t.deps.Decompress.Decompress(ctx, decompress.Request{
		Path:      req.Source.Path,
		Data:      spr.Encode(doc),
		Expansion: req.Expansion,
		Length:    req.Length,
	})
	if err != nil {
		return nil, err
	}

	metrics := quality.Measure(req.Source, doc, expanded)
	res := &Result{
		Doc:         doc,
		Expanded:    expanded,
		Metrics:     metrics,
		Verdict:     t.deps.Validator.Check(metrics),
		Regressed:   t.deps.Validator.Regressed(doc.Meta.Ratio, req.Ratio),
		TargetRatio: req.Ratio,
	}

	if res.Regressed {
		t.deps.Logger.Warn(ctx, "quality regression",
			zap.String("trace_id", tctx.TraceID),
			zap.Float64("achieved_ratio", doc.Meta.Ratio),
			zap.Float64("target_ratio", req.Ratio))
	}
	if !res.Verdict.Pass {
		t.deps.Logger.Warn(ctx, "quality gate failed",
			zap.String("trace_id", tctx.TraceID),
			zap.String("reason", res.Verdict.Reason))
	}
	return res, nil
}
