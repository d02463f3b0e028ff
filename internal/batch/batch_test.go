package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fyrsmithlabs/spr/internal/compress"
	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/decompress"
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/quality"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestCoordinator(batchCfg config.BatchConfig) *Coordinator {
	cfg := config.Default()
	return New(batchCfg, Deps{
		Compress: compress.New(cfg.Compression, compress.Deps{
			Generative: generative.NewLocal(),
		}),
		Decompress: decompress.New(cfg.Decompression, decompress.Deps{
			Generative: generative.NewLocal(),
		}),
		Validator: quality.New(cfg.Quality),
	})
}

// compressibleText repeats one sentence into a paragraph large enough to
// pass input validation and predictable enough to compress to a single
// statement.
func compressibleText() string {
	return strings.TrimSpace(strings.Repeat("The granite quarry supplied stone blocks for the harbor wall and causeway. ", 9))
}

func sprFixture(statements ...string) string {
	var b strings.Builder
	b.WriteString("# Original: 200 words\n")
	b.WriteString("# Compressed: 20 words\n")
	b.WriteString("# Ratio: 0.10\n")
	b.WriteString("# Format: standard\n\n")
	for _, s := range statements {
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt"} {
		writeFile(t, dir, name, compressibleText())
	}
	writeFile(t, dir, "e.txt", "far too short to compress")

	paths, err := Discover(dir, OpCompress)
	require.NoError(t, err)
	require.Len(t, paths, 5)

	c := newTestCoordinator(config.BatchConfig{Workers: 4})
	summary, err := c.Run(context.Background(), Request{Op: OpCompress, Paths: paths, Ratio: 0.1})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, summary.Files, 5)
	for _, f := range summary.Files {
		if filepath.Base(f.Path) == "e.txt" {
			assert.Contains(t, f.Error, "need at least")
			assert.Empty(t, f.Output)
			continue
		}
		require.True(t, f.OK(), "unexpected failure for %s: %s", f.Path, f.Error)
		_, statErr := os.Stat(f.Output)
		assert.NoError(t, statErr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "a.spr"))
	require.NoError(t, err)
	doc, err := spr.Parse(data)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Statements)
	assert.Equal(t, spr.FormatStandard, doc.Meta.Format)
}

func TestRun_SummaryAverages(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", compressibleText()),
		writeFile(t, dir, "b.txt", compressibleText()),
	}

	c := newTestCoordinator(config.BatchConfig{Workers: 2})
	summary, err := c.Run(context.Background(), Request{Op: OpCompress, Paths: paths, Ratio: 0.1})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Flagged)
	// One 11-word statement from 108 source words.
	assert.InDelta(t, 0.102, summary.AvgRatio, 0.005)
}

func TestRun_FlagsRatioRegressions(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", compressibleText()),
		writeFile(t, dir, "b.txt", compressibleText()),
	}

	// A 108-word document cannot compress below one statement, so a 1%
	// target always overshoots past the 50% tolerance.
	c := newTestCoordinator(config.BatchConfig{Workers: 2})
	summary, err := c.Run(context.Background(), Request{Op: OpCompress, Paths: paths, Ratio: 0.01})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 2, summary.Flagged)
	for _, f := range summary.Files {
		assert.True(t, f.Flagged)
	}
}

func TestRun_Decompress(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	fixture := sprFixture(
		"The harbor granary stored imported wheat beneath heavy stone arches",
		"Masons repaired the northern causeway before the spring floods arrived",
	)
	paths := []string{
		writeFile(t, dir, "a.spr", fixture),
		writeFile(t, dir, "b.spr", fixture),
	}
	writeFile(t, dir, "broken.spr", "# Original: 10 words\n\n")
	paths = append(paths, filepath.Join(dir, "broken.spr"))

	c := newTestCoordinator(config.BatchConfig{Workers: 2})
	summary, err := c.Run(context.Background(), Request{Op: OpDecompress, Paths: paths, OutDir: outDir})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	// Two 10-word statements expand to 33 words each under the detailed
	// default.
	assert.InDelta(t, 3.3, summary.AvgRatio, 0.05)

	content, err := os.ReadFile(filepath.Join(outDir, "a.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "harbor granary")
	assert.Contains(t, string(content), "northern causeway")

	for _, f := range summary.Files {
		if filepath.Base(f.Path) == "broken.spr" {
			assert.Contains(t, f.Error, "no statements")
		}
	}
}

func TestRun_CanceledContextStopsDispatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", compressibleText()),
		writeFile(t, dir, "b.txt", compressibleText()),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCoordinator(config.BatchConfig{Workers: 2})
	summary, err := c.Run(ctx, Request{Op: OpCompress, Paths: paths, Ratio: 0.1})
	require.NoError(t, err)

	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Files)
}

func TestRun_UnknownOperation(t *testing.T) {
	c := newTestCoordinator(config.BatchConfig{})

	_, err := c.Run(context.Background(), Request{Op: "transmogrify"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown batch operation")
}

func TestRun_CreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "nested", "out")
	paths := []string{writeFile(t, dir, "a.txt", compressibleText())}

	c := newTestCoordinator(config.BatchConfig{Workers: 1})
	summary, err := c.Run(context.Background(), Request{Op: OpCompress, Paths: paths, Ratio: 0.1})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)

	summary, err = c.Run(context.Background(), Request{Op: OpCompress, Paths: paths, OutDir: outDir, Ratio: 0.1})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, filepath.Join(outDir, "a.spr"), summary.Files[0].Output)
	_, statErr := os.Stat(filepath.Join(outDir, "a.spr"))
	assert.NoError(t, statErr)
}

func TestDiscover_DirectoryFiltersByOperation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "b.md", "x")
	writeFile(t, dir, "c.spr", "x")
	writeFile(t, dir, "d.log", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	compressible, err := Discover(dir, OpCompress)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.md")}, compressible)

	expandable, err := Discover(dir, OpDecompress)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "c.spr")}, expandable)
}

func TestDiscover_GlobAndSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x")
	writeFile(t, dir, "b.md", "x")

	matches, err := Discover(filepath.Join(dir, "*.txt"), OpCompress)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, matches)

	single, err := Discover(filepath.Join(dir, "b.md"), OpCompress)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.md")}, single)

	none, err := Discover(filepath.Join(dir, "*.spr"), OpDecompress)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEligible(t *testing.T) {
	tests := []struct {
		path string
		op   Op
		want bool
	}{
		{"notes.txt", OpCompress, true},
		{"notes.md", OpCompress, true},
		{"NOTES.TXT", OpCompress, true},
		{"notes.spr", OpCompress, false},
		{"notes.spr", OpDecompress, true},
		{"notes.txt", OpDecompress, false},
		{"archive.log", OpCompress, false},
		{"noext", OpCompress, false},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+string(tt.op), func(t *testing.T) {
			assert.Equal(t, tt.want, Eligible(tt.path, tt.op))
		})
	}
}

func TestOutPath(t *testing.T) {
	tests := []struct {
		in     string
		outDir string
		op     Op
		want   string
	}{
		{filepath.Join("docs", "a.txt"), "", OpCompress, filepath.Join("docs", "a.spr")},
		{filepath.Join("docs", "a.md"), "", OpCompress, filepath.Join("docs", "a.spr")},
		{filepath.Join("docs", "a.spr"), "", OpDecompress, filepath.Join("docs", "a.txt")},
		{filepath.Join("docs", "a.txt"), "out", OpCompress, filepath.Join("out", "a.spr")},
		{filepath.Join("docs", "a.spr"), "out", OpDecompress, filepath.Join("out", "a.txt")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, outPath(tt.in, tt.outDir, tt.op))
	}
}
