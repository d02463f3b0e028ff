package decompress

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

func TestStructureContent_JoinsGroups(t *testing.T) {
	d := Draft{
		Outline: Outline{Plan: Plan{
			Length: spr.LengthAuto,
			Groups: [][]int{{0, 1}, {2}},
		}},
		Passages: []string{"first passage.", "second passage.", "third passage."},
	}

	a, err := structureContent{}.Run(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, a.Paragraphs, 2)
	assert.Equal(t, "first passage. second passage.", a.Paragraphs[0])
	assert.Equal(t, "third passage.", a.Paragraphs[1])
}

func TestStructureContent_AppliesCap(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 120))
	d := Draft{
		Outline: Outline{Plan: Plan{
			Length: spr.LengthShort,
			Groups: [][]int{{0}, {1}},
		}},
		Passages: []string{long, long},
	}

	a, err := structureContent{}.Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, 150, a.WordCount())
}

func TestCapParagraphs_CutsInsideCrossingParagraph(t *testing.T) {
	paragraphs := []string{
		strings.TrimSpace(strings.Repeat("alpha ", 10)),
		strings.TrimSpace(strings.Repeat("bravo ", 10)),
		strings.TrimSpace(strings.Repeat("charlie ", 10)),
	}

	out := capParagraphs(paragraphs, 15)
	require.Len(t, out, 2)
	assert.Equal(t, 10, text.WordCount(out[0]))
	assert.Equal(t, 5, text.WordCount(out[1]))
	assert.True(t, strings.HasSuffix(out[1], "."))
}

func TestCapParagraphs_ExactBoundary(t *testing.T) {
	paragraphs := []string{
		strings.TrimSpace(strings.Repeat("alpha ", 10)),
		strings.TrimSpace(strings.Repeat("bravo ", 10)),
	}

	out := capParagraphs(paragraphs, 20)
	assert.Equal(t, paragraphs, out)
}

func TestCapParagraphs_RepairsTrailingComma(t *testing.T) {
	out := capParagraphs([]string{"alpha bravo, charlie delta"}, 2)
	require.Len(t, out, 1)
	assert.Equal(t, "alpha bravo.", out[0])
}

func TestPolishOutput_RatioAndTrace(t *testing.T) {
	ctx, tctx := tracing.Ensure(context.Background())
	doc, err := spr.Parse(sprFixture(testStatements...))
	require.NoError(t, err)

	a := Assembly{
		Doc:       doc,
		Expansion: spr.ExpansionDetailed,
		Paragraphs: []string{
			strings.TrimSpace(strings.Repeat("alpha ", 100)),
			strings.TrimSpace(strings.Repeat("bravo ", 50)),
		},
	}

	out, err := polishOutput{}.Run(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, spr.ExpansionDetailed, out.Expansion)
	assert.InDelta(t, 3.0, out.ExpansionRatio, 1e-9)
	assert.Equal(t, tctx.TraceID, out.TraceID)
	assert.Contains(t, out.Content, "\n\n")
	assert.Equal(t, 150, text.WordCount(out.Content))
}
