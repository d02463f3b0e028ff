// Package decompress implements the six-stage decompression pipeline that
// reconstructs prose from a sparse priming representation.
//
// Stages run strictly in order: ParseSPR, AnalyzeStructure,
// ReconstructConcepts, ExpandConcepts, StructureContent, PolishOutput.
// Reconstruction is generative, not inverse: the output restates and
// elaborates what the statements assert, it does not recover the original
// wording. Any stage failure is terminal for the document.
package decompress

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
	"github.com/fyrsmithlabs/spr/internal/text"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// timeNow is swapped in tests to pin timestamps.
var timeNow = time.Now

// Deps are the collaborators shared by every decompression run.
type Deps struct {
	Generative generative.Service
	// Scrubber redacts secrets from statements bound for the generative
	// backend. nil or disabled means text passes through untouched.
	Scrubber  *redact.Scrubber
	Logger    *logging.Logger
	Collector telemetry.Collector
	Telemetry *telemetry.Telemetry
}

// Pipeline reconstructs documents. Safe for concurrent use; batch workers
// share one instance.
type Pipeline struct {
	cfg  config.DecompressionConfig
	deps Deps
}

// New builds a decompression pipeline. A nil logger or collector degrades
// to a no-op.
func New(cfg config.DecompressionConfig, deps Deps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Collector == nil {
		deps.Collector = telemetry.Nop{}
	}
	return &Pipeline{cfg: cfg, deps: deps}
}

// Decompress runs the full stage sequence and returns the reconstructed
// document.
func (p *Pipeline) Decompress(ctx context.Context, req Request) (*spr.ExpandedDocument, error) {
	if req.Expansion == "" {
		req.Expansion = spr.ExpansionType(p.cfg.DefaultExpansion)
	}
	if req.Length == "" {
		req.Length = spr.TargetLength(p.cfg.DefaultLength)
	}
	if !req.Expansion.Valid() {
		return nil, spr.ErrUnknownExpansion
	}
	if !req.Length.Valid() {
		return nil, spr.ErrUnknownLength
	}

	ctx, tctx := tracing.Ensure(ctx)
	ctx = logging.WithDocument(ctx, docLabel(req))
	start := timeNow()

	r := pipeline.NewRunner("decompress", docLabel(req), p.deps.Logger, p.deps.Collector, p.deps.Telemetry)

	doc, err := pipeline.Run(ctx, r, parseSPR{}, req.Data)
	if err != nil {
		return nil, err
	}

	plan, err := pipeline.Run(ctx, r, analyzeStructure{
		expansion: req.Expansion,
		length:    req.Length,
	}, doc)
	if err != nil {
		return nil, err
	}

	outline, err := pipeline.Run(ctx, r, reconstructConcepts{}, plan)
	if err != nil {
		return nil, err
	}

	draft, err := pipeline.Run(ctx, r, expandConcepts{exp: expander{
		svc:      p.deps.Generative,
		scrubber: p.deps.Scrubber,
		style:    plan.Style,
	}}, outline)
	if err != nil {
		return nil, err
	}

	asm, err := pipeline.Run(ctx, r, structureContent{}, draft)
	if err != nil {
		return nil, err
	}

	out, err := pipeline.Run(ctx, r, polishOutput{}, asm)
	if err != nil {
		return nil, err
	}

	reconstructed := text.WordCount(out.Content)
	r.Emit(ctx, "Complete", telemetry.Event{
		StartedAt:   start,
		Duration:    timeNow().Sub(start),
		InputWords:  doc.WordCount(),
		OutputWords: reconstructed,
		Ratio:       out.ExpansionRatio,
		Success:     true,
	})
	p.deps.Logger.Info(ctx, "decompression complete",
		zap.String("trace_id", tctx.TraceID),
		zap.String("expansion", string(req.Expansion)),
		zap.Int("compressed_words", doc.WordCount()),
		zap.Int("reconstructed_words", reconstructed),
		zap.Float64("expansion_ratio", out.ExpansionRatio))

	return out, nil
}

// docLabel names a request source for logs and telemetry.
func docLabel(req Request) string {
	if req.Path != "" {
		return req.Path
	}
	return "inline"
}
