package decompress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func TestParseSPR_HeadersAndStatements(t *testing.T) {
	doc, err := parseSPR{}.Run(context.Background(), sprFixture(testStatements...))
	require.NoError(t, err)
	require.Len(t, doc.Statements, len(testStatements))
	assert.Equal(t, 500, doc.Meta.OriginalWords)
	assert.Equal(t, 50, doc.Meta.CompressedWords)
	assert.Equal(t, spr.FormatStandard, doc.Meta.Format)
}

func TestParseSPR_NoStatements(t *testing.T) {
	_, err := parseSPR{}.Run(context.Background(), sprFixture())
	assert.ErrorIs(t, err, spr.ErrNoStatements)
}

func TestExpansionShape(t *testing.T) {
	mult, style := expansionShape(spr.ExpansionBrief)
	assert.InDelta(t, 1.3, mult, 1e-9)
	assert.Equal(t, generative.StyleClause, style)

	mult, style = expansionShape(spr.ExpansionDetailed)
	assert.InDelta(t, 3.0, mult, 1e-9)
	assert.Equal(t, generative.StyleParagraph, style)

	mult, style = expansionShape(spr.ExpansionComprehensive)
	assert.InDelta(t, 5.0, mult, 1e-9)
	assert.Equal(t, generative.StyleNarrative, style)
}

func TestAnalyzeStructure_Budgets(t *testing.T) {
	doc, err := spr.Parse(sprFixture(testStatements...))
	require.NoError(t, err)

	plan, err := analyzeStructure{
		expansion: spr.ExpansionDetailed,
		length:    spr.LengthAuto,
	}.Run(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, plan.Budgets, len(testStatements))
	for _, b := range plan.Budgets {
		// Ten-word statements at 3x growth.
		assert.Equal(t, 27, b.Min)
		assert.Equal(t, 33, b.Max)
	}
	assert.Equal(t, generative.StyleParagraph, plan.Style)
	assert.Equal(t, spr.LengthAuto, plan.Length)
	assert.Equal(t, 50, plan.WordCount())
}

func TestGroupStatements_BriefMergesAll(t *testing.T) {
	doc, err := spr.Parse(sprFixture(testStatements...))
	require.NoError(t, err)

	groups := groupStatements(doc, spr.ExpansionBrief)
	require.Len(t, groups, 1)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, groups[0])
}

func TestGroupStatements_MergesSharedVocabulary(t *testing.T) {
	doc := &spr.Document{Statements: []spr.Statement{
		{Text: "The quarry supplied granite blocks for the harbor wall"},
		{Text: "Granite blocks from the quarry reached the harbor quickly"},
		{Text: "Shepherds grazed flocks on the windswept upland pasture"},
	}}

	groups := groupStatements(doc, spr.ExpansionDetailed)
	require.Len(t, groups, 2)
	assert.Equal(t, []int{0, 1}, groups[0])
	assert.Equal(t, []int{2}, groups[1])
}

func TestGroupStatements_DisjointStaySeparate(t *testing.T) {
	doc, err := spr.Parse(sprFixture(testStatements...))
	require.NoError(t, err)

	groups := groupStatements(doc, spr.ExpansionDetailed)
	assert.Len(t, groups, len(testStatements))
}
