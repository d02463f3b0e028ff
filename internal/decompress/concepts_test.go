package decompress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/spr"
)

func TestConceptTerms_RanksByDocumentFrequency(t *testing.T) {
	global := map[string]int{"granite": 5, "quarry": 2, "wall": 1}

	terms := conceptTerms("The wall beside quarry granite", global)
	assert.Equal(t, []string{"granite", "quarry", "wall"}, terms)
}

func TestConceptTerms_TiesKeepMentionOrder(t *testing.T) {
	terms := conceptTerms("alpha bravo charlie", map[string]int{})
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, terms)
}

func TestConceptTerms_Dedupes(t *testing.T) {
	terms := conceptTerms("granite granite quarry", map[string]int{"granite": 2, "quarry": 1})
	assert.Equal(t, []string{"granite", "quarry"}, terms)
}

func TestConceptTerms_StopwordsOnly(t *testing.T) {
	assert.Empty(t, conceptTerms("and the or it", map[string]int{}))
}

func TestReconstructConcepts_AlignedWithStatements(t *testing.T) {
	doc, err := spr.Parse(sprFixture(testStatements...))
	require.NoError(t, err)

	outline, err := reconstructConcepts{}.Run(context.Background(), Plan{Doc: doc})
	require.NoError(t, err)
	require.Len(t, outline.Concepts, len(testStatements))
	for i, c := range outline.Concepts {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, testStatements[i], c.Text)
		assert.NotEmpty(t, c.Keywords)
		assert.LessOrEqual(t, len(c.Keywords), conceptTermCount)
	}
}
