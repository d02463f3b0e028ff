// Package batch applies compression or decompression to a file set with a
// bounded worker pool.
//
// Files are fully independent: one document's failure is recorded in the
// summary and never aborts the rest of the batch. Workers share the same
// pipeline instances, which are safe for concurrent use; the only shared
// mutable state is the summary accumulator behind its mutex. Cancellation
// stops dispatch of new files while in-flight documents finish their
// current stage.
package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

// Op selects the pipeline a batch drives.
type Op string

const (
	OpCompress   Op = "compress"
	OpDecompress Op = "decompress"
)

// Request describes one batch: the operation, the files, and the options
// forwarded to every document.
type Request struct {
	Op Op
	// Paths are the files to process, typically from Discover.
	Paths []string
	// OutDir receives the outputs; empty writes next to each input.
	OutDir string

	// Compression options. Ratio is also the regression target that marks
	// a file quality-flagged; zero disables flagging.
	Format spr.Format
	Ratio  float64

	// Decompression options.
	Expansion spr.ExpansionType
	Length    spr.TargetLength
}

// FileResult records the outcome for a single file.
type FileResult struct {
	Path    string  `json:"path"`
	Output  string  `json:"output,omitempty"`
	Ratio   float64 `json:"ratio,omitempty"`
	Flagged bool    `json:"flagged,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// OK reports whether the file was processed successfully.
func (r FileResult) OK() bool { return r.Error == "" }

// Summary aggregates a finished batch. Total counts attempted files, so
// Total equals Succeeded plus Failed; a canceled batch leaves undispatched
// files out entirely.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Flagged counts succeeded files whose compression ratio overshot the
	// target beyond tolerance.
	Flagged int `json:"flagged"`
	// AvgRatio averages the achieved ratio across succeeded files:
	// compression ratio when compressing, expansion ratio when expanding.
	AvgRatio float64      `json:"avg_ratio"`
	Files    []FileResult `json:"files"`
}

// accumulator collects results from concurrent workers.
type accumulator struct {
	mu       sync.Mutex
	files    []FileResult
	ratioSum float64
}

func (a *accumulator) add(r FileResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, r)
	if r.OK() {
		a.ratioSum += r.Ratio
	}
}

func (a *accumulator) summary() *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &Summary{Files: make([]FileResult, len(a.files))}
	copy(s.Files, a.files)
	sort.Slice(s.Files, func(i, j int) bool { return s.Files[i].Path < s.Files[j].Path })

	for _, f := range s.Files {
		if f.OK() {
			s.Succeeded++
			if f.Flagged {
				s.Flagged++
			}
		} else {
			s.Failed++
		}
	}
	s.Total = len(s.Files)
	if s.Succeeded > 0 {
		s.AvgRatio = a.ratioSum / float64(s.Succeeded)
	}
	return s
}

// Deps are the collaborators shared by all batch workers.
type Deps struct {
	Compress   *compress.Pipeline
	Decompress *decompress.Pipeline
	Validator  *quality.Validator
	Logger     *logging.Logger
}

// Coordinator runs batches. Safe for concurrent use.
type Coordinator struct {
	cfg  config.BatchConfig
	deps Deps
}

// New builds a coordinator. A nil logger degrades to a no-op; a nil
// validator disables quality flagging.
func New(cfg config.BatchConfig, deps Deps) *Coordinator {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Validator == nil {
		deps.Validator = quality.New(config.QualityConfig{})
	}
	return &Coordinator{cfg: cfg, deps: deps}
}

// Run processes every path in the request through the bounded pool and
// returns the aggregate summary. Per-file failures are recorded, never
// returned; the error covers batch-level problems only.
func (c *Coordinator) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := c.prepare(req); err != nil {
		return nil, err
	}

	acc := &accumulator{}
	g := new(errgroup.Group)
	g.SetLimit(c.workers())

	for _, path := range req.Paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			acc.add(c.processOne(ctx, req, path))
			return nil
		})
	}
	// Workers always return nil; Wait only joins them.
	_ = g.Wait()

	return acc.summary(), nil
}

// prepare validates batch-level inputs and creates the output directory.
func (c *Coordinator) prepare(req Request) error {
	switch req.Op {
	case OpCompress, OpDecompress:
	default:
		return fmt.Errorf("unknown batch operation %q", req.Op)
	}
	if req.OutDir != "" {
		if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	return nil
}

// workers resolves the pool size; zero means one worker per CPU.
func (c *Coordinator) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.NumCPU()
}

// processOne runs a single file through its pipeline and writes the
// output. Every failure mode lands in the result, not in an error.
func (c *Coordinator) processOne(ctx context.Context, req Request, path string) FileResult {
	res := FileResult{Path: path}

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Error = err.Error()
		c.deps.Logger.Warn(ctx, "batch file unreadable", zap.String("path", path), zap.Error(err))
		return res
	}

	switch req.Op {
	case OpCompress:
		doc, err := c.deps.Compress.Compress(ctx, compress.Request{
			Source: spr.SourceDocument{Path: path, Content: string(data)},
			Format: req.Format,
			Ratio:  req.Ratio,
		})
		if err != nil {
			res.Error = err.Error()
			break
		}
		out := outPath(path, req.OutDir, req.Op)
		if err := os.WriteFile(out, spr.Encode(doc), 0o644); err != nil {
			res.Error = err.Error()
			break
		}
		res.Output = out
		res.Ratio = doc.Meta.Ratio
		res.Flagged = c.deps.Validator.Regressed(doc.Meta.Ratio, req.Ratio)

	case OpDecompress:
		expanded, err := c.deps.Decompress.Decompress(ctx, decompress.Request{
			Path:      path,
			Data:      data,
			Expansion: req.Expansion,
			Length:    req.Length,
		})
		if err != nil {
			res.Error = err.Error()
			break
		}
		out := outPath(path, req.OutDir, req.Op)
		if err := os.WriteFile(out, []byte(expanded.Content+"\n"), 0o644); err != nil {
			res.Error = err.Error()
			break
		}
		res.Output = out
		res.Ratio = expanded.ExpansionRatio
	}

	if res.OK() {
		c.deps.Logger.Info(ctx, "batch file processed",
			zap.String("path", path),
			zap.String("output", res.Output),
			zap.Float64("ratio", res.Ratio),
			zap.Bool("flagged", res.Flagged))
	} else {
		c.deps.Logger.Warn(ctx, "batch file failed",
			zap.String("path", path),
			zap.String("error", res.Error))
	}
	return res
}
