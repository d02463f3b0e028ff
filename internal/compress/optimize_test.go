package compress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func newOptimize() optimizeStatements {
	return optimizeStatements{threshold: 0.85, logger: logging.Nop()}
}

func draftFromTexts(texts ...string) Draft {
	d := Draft{}
	for i, txt := range texts {
		d.Concepts = append(d.Concepts, Concept{Ordinal: i, Text: txt})
		d.Statements = append(d.Statements, spr.Statement{Text: txt})
	}
	return d
}

func TestOptimizeStatements_DropsReorderedDuplicate(t *testing.T) {
	d := draftFromTexts(
		"Granite quarry supplied harbor masonry stone",
		"Masonry stone supplied granite harbor quarry",
		"Children raced around bells while storms battered rooftops",
	)

	out, err := newOptimize().Run(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, out.Statements, 2)
	assert.Equal(t, d.Statements[0].Text, out.Statements[0].Text)
	assert.Equal(t, d.Statements[2].Text, out.Statements[1].Text)

	require.Len(t, out.Concepts, 2)
	assert.Equal(t, 0, out.Concepts[0].Ordinal)
	assert.Equal(t, 2, out.Concepts[1].Ordinal)
}

func TestOptimizeStatements_KeepsDistinct(t *testing.T) {
	d := draftFromTexts(
		"Lanterns marked the quayside whenever fog covered the inlet",
		"Masons widened the causeway after the gatehouse collapsed",
		"Barges moored along the embankment below the watermill",
	)

	out, err := newOptimize().Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d.Statements, out.Statements)
	assert.Equal(t, d.Concepts, out.Concepts)
}

func TestOptimizeStatements_SingleStatementPassThrough(t *testing.T) {
	d := draftFromTexts("The ferry carried stone across the delta")

	out, err := newOptimize().Run(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d, out)
}

// Statements with no content tokens embed to a zero vector; they are kept
// but never indexed, and later statements still dedup against each other.
func TestOptimizeStatements_ZeroVectorKeptUnindexed(t *testing.T) {
	d := draftFromTexts(
		"and the or it to",
		"Granite quarry supplied harbor masonry",
		"Granite quarry supplied harbor masonry",
	)

	out, err := newOptimize().Run(context.Background(), d)
	require.NoError(t, err)
	require.Len(t, out.Statements, 2)
	assert.Equal(t, "and the or it to", out.Statements[0].Text)
	assert.Equal(t, "Granite quarry supplied harbor masonry", out.Statements[1].Text)
}
