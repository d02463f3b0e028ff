package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/pipeline"
	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/telemetry"
)

// testSource builds three paragraphs with small, pairwise disjoint
// vocabularies. Each paragraph distills to one standard statement, so the
// round trip is fully predictable: 315 words in, 3 statements of 11 words,
// three reconstructed paragraphs in original order.
func testSource() spr.SourceDocument {
	paras := []string{
		strings.TrimSpace(strings.Repeat("The granite quarry supplied stone blocks for the harbor wall and causeway. ", 9)),
		strings.TrimSpace(strings.Repeat("Masons hauled timber beams across the viaduct toward the busy market square. ", 9)),
		strings.TrimSpace(strings.Repeat("Fishermen mended woven nets beside the tidal estuary during autumn mornings. ", 9)),
	}
	return spr.SourceDocument{Path: "fixture.txt", Content: strings.Join(paras, "\n\n")}
}

// scatteredSource has no repeated vocabulary at all, so only a sliver of
// its tokens survives compression and the similarity gate cannot pass.
func scatteredSource() spr.SourceDocument {
	var paras []string
	n := 0
	for p := 0; p < 3; p++ {
		words := make([]string, 0, 105)
		for i := 0; i < 105; i++ {
			n++
			words = append(words, fmt.Sprintf("token%03d", n))
		}
		paras = append(paras, strings.Join(words, " "))
	}
	return spr.SourceDocument{Content: strings.Join(paras, "\n\n")}
}

func newTestTester(t *testing.T, cfg *config.Config, collector telemetry.Collector, logger *logging.Logger) *Tester {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	return New(cfg.Compression, Deps{
		Compress: compress.New(cfg.Compression, compress.Deps{
			Generative: generative.NewLocal(),
			Collector:  collector,
		}),
		Decompress: decompress.New(cfg.Decompression, decompress.Deps{
			Generative: generative.NewLocal(),
			Collector:  collector,
		}),
		Validator: quality.New(cfg.Quality),
		Logger:    logger,
	})
}

func TestRun_CompletesWithQualityScores(t *testing.T) {
	tester := newTestTester(t, nil, nil, nil)

	res, err := tester.Run(context.Background(), Request{Source: testSource()})
	require.NoError(t, err)

	require.Len(t, res.Doc.Statements, 3)
	for _, s := range res.Doc.Statements {
		assert.Equal(t, 11, s.WordCount())
	}
	assert.Equal(t, 315, res.Doc.Meta.OriginalWords)
	assert.Equal(t, 33, res.Doc.Meta.CompressedWords)

	assert.Equal(t, 2, strings.Count(res.Expanded.Content, "\n\n"))
	assert.Equal(t, 102, res.Expanded.WordCount())

	assert.InDelta(t, 0.105, res.Metrics.CompressionRatio, 0.005)
	assert.InDelta(t, 3.09, res.Metrics.ExpansionRatio, 0.05)
	assert.InDelta(t, 0.73, res.Metrics.SemanticSimilarity, 0.02)
	assert.InDelta(t, 0.27, res.Metrics.InformationLoss, 0.02)
	assert.InDelta(t, 1.0, res.Metrics.StructuralPreservation, 0.001)

	assert.True(t, res.Verdict.Pass)
	assert.False(t, res.Regressed)
	assert.InDelta(t, 0.1, res.TargetRatio, 0.001)
}

func TestRun_BothLegsShareOneTrace(t *testing.T) {
	capture := telemetry.NewCapture()
	tester := newTestTester(t, nil, capture, nil)

	res, err := tester.Run(context.Background(), Request{Source: testSource()})
	require.NoError(t, err)

	require.NotEmpty(t, res.Doc.Meta.TraceID)
	assert.Equal(t, res.Doc.Meta.TraceID, res.Expanded.TraceID)

	assert.Len(t, capture.ByStage("compress", "ValidateInput"), 1)
	assert.Len(t, capture.ByStage("decompress", "ParseSPR"), 1)
	for _, ev := range capture.Events() {
		assert.Equal(t, res.Doc.Meta.TraceID, ev.TraceID)
	}
}

func TestRun_RegressionIsSoft(t *testing.T) {
	logger := logging.NewTestLogger()
	tester := newTestTester(t, nil, nil, logger.Logger)

	// A 315-word source cannot compress below one statement, so a 1%
	// target is guaranteed to overshoot past tolerance.
	res, err := tester.Run(context.Background(), Request{Source: testSource(), Ratio: 0.01})
	require.NoError(t, err)

	assert.True(t, res.Regressed)
	require.NotNil(t, res.Doc)
	require.NotNil(t, res.Expanded)
	assert.NotEmpty(t, res.Expanded.Content)
	logger.AssertLogged(t, zapcore.WarnLevel, "quality regression")
}

func TestRun_GateFailureIsSoft(t *testing.T) {
	logger := logging.NewTestLogger()
	tester := newTestTester(t, nil, nil, logger.Logger)

	res, err := tester.Run(context.Background(), Request{Source: scatteredSource()})
	require.NoError(t, err)

	assert.False(t, res.Verdict.Pass)
	assert.Contains(t, res.Verdict.Reason, "semantic similarity")
	assert.False(t, res.Regressed)
	require.NotNil(t, res.Expanded)
	logger.AssertLogged(t, zapcore.WarnLevel, "quality gate failed")
}

func TestRun_BriefExpansion(t *testing.T) {
	tester := newTestTester(t, nil, nil, nil)

	res, err := tester.Run(context.Background(), Request{
		Source:    testSource(),
		Expansion: spr.ExpansionBrief,
	})
	require.NoError(t, err)

	assert.Equal(t, spr.ExpansionBrief, res.Expanded.Expansion)
	assert.NotContains(t, res.Expanded.Content, "\n\n")
	assert.InDelta(t, 1.36, res.Metrics.ExpansionRatio, 0.05)
}

func TestRun_DefaultsComeFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Compression.DefaultRatio = 0.01
	tester := newTestTester(t, cfg, nil, nil)

	res, err := tester.Run(context.Background(), Request{Source: testSource()})
	require.NoError(t, err)

	assert.InDelta(t, 0.01, res.TargetRatio, 0.0001)
	assert.True(t, res.Regressed, "default target should drive the regression check")
	assert.Equal(t, spr.FormatStandard, res.Doc.Meta.Format)
}

func TestRun_CompressionErrorPropagates(t *testing.T) {
	tester := newTestTester(t, nil, nil, nil)

	res, err := tester.Run(context.Background(), Request{
		Source: spr.SourceDocument{Content: "only four words here"},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, spr.ErrInputTooShort)

	var stageErr *pipeline.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "compress", stageErr.Pipeline)
	assert.Equal(t, "ValidateInput", stageErr.Stage)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	tester := newTestTester(t, nil, nil, nil)

	first, err := tester.Run(context.Background(), Request{Source: testSource()})
	require.NoError(t, err)
	second, err := tester.Run(context.Background(), Request{Source: testSource()})
	require.NoError(t, err)

	assert.Equal(t, first.Doc.Text(), second.Doc.Text())
	assert.Equal(t, first.Expanded.Content, second.Expanded.Content)
	assert.Equal(t, first.Metrics, second.Metrics)
}
