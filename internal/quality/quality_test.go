package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

func docOf(statements ...string) *spr.Document {
	d := &spr.Document{}
	for _, s := range statements {
		d.Statements = append(d.Statements, spr.Statement{Text: s})
	}
	return d
}

func TestMeasure_Ratios(t *testing.T) {
	source := spr.SourceDocument{
		Content: strings.TrimSpace(strings.Repeat("granite quarry harbor wall stone ", 20)),
	}
	require.Equal(t, 100, source.WordCount())

	doc := docOf(
		"Granite quarry supplied the harbor",
		"Stone walls protected the quay",
	)
	expanded := &spr.ExpandedDocument{
		Content: strings.TrimSpace(strings.Repeat("reconstructed prose about the quarry ", 6)),
	}
	require.Equal(t, 30, expanded.WordCount())

	m := Measure(source, doc, expanded)

	assert.InDelta(t, 0.1, m.CompressionRatio, 0.001)
	assert.InDelta(t, 3.0, m.ExpansionRatio, 0.001)
}

func TestMeasure_SimilarityAndLoss(t *testing.T) {
	// Source vocabulary is {granite, quarry, harbor, wall, stone}; the
	// reconstruction repeats all five and adds one new content token, so
	// Jaccard is 5/6.
	source := spr.SourceDocument{
		Content: strings.TrimSpace(strings.Repeat("granite quarry harbor wall stone ", 10)),
	}
	expanded := &spr.ExpandedDocument{
		Content: "The granite quarry supplied stone for the harbor wall.",
	}

	m := Measure(source, docOf("Granite quarry built the harbor"), expanded)

	assert.InDelta(t, 5.0/6.0, m.SemanticSimilarity, 0.001)
	assert.InDelta(t, 1.0/6.0, m.InformationLoss, 0.001)
}

func TestMeasure_DisjointTextsLoseEverything(t *testing.T) {
	source := spr.SourceDocument{
		Content: strings.TrimSpace(strings.Repeat("granite quarry harbor wall stone ", 10)),
	}
	expanded := &spr.ExpandedDocument{
		Content: "Completely unrelated prose discussing orchards, beehives, and meadows.",
	}

	m := Measure(source, docOf("Granite quarry built the harbor"), expanded)

	assert.Zero(t, m.SemanticSimilarity)
	assert.InDelta(t, 1.0, m.InformationLoss, 0.001)
}

func TestMeasure_EmptySource(t *testing.T) {
	m := Measure(spr.SourceDocument{}, docOf("Granite quarry built the harbor"), &spr.ExpandedDocument{
		Content: "Some reconstructed prose.",
	})

	assert.Zero(t, m.CompressionRatio)
	assert.Zero(t, m.SemanticSimilarity)
	assert.Zero(t, m.StructuralPreservation)
}

func TestStructuralPreservation(t *testing.T) {
	paraA := "The quarry cut granite blocks daily."
	paraB := "Harbor vessels carried timber north."
	paraC := "Monastery scribes copied ancient maps."

	echoA := "Workers at the quarry shaped granite all day long."
	echoB := "Vessels left the harbor riding the morning tide."
	echoC := "The scribes preserved every ancient chart they held."

	tests := []struct {
		name     string
		original string
		rebuilt  string
		want     float64
	}{
		{
			name:     "all paragraphs matched in order",
			original: strings.Join([]string{paraA, paraB, paraC}, "\n\n"),
			rebuilt:  strings.Join([]string{echoA, echoB, echoC}, "\n\n"),
			want:     1.0,
		},
		{
			name:     "reordered reconstruction loses the displaced paragraph",
			original: strings.Join([]string{paraA, paraB, paraC}, "\n\n"),
			rebuilt:  strings.Join([]string{echoB, echoA, echoC}, "\n\n"),
			want:     2.0 / 3.0,
		},
		{
			name:     "no overlap matches nothing",
			original: strings.Join([]string{paraA, paraB}, "\n\n"),
			rebuilt:  "Completely unrelated prose about orchards and beehives.",
			want:     0,
		},
		{
			name:     "extra reconstructed paragraphs do not hurt",
			original: paraA,
			rebuilt:  strings.Join([]string{"An introduction nobody asked for.", echoA, echoC}, "\n\n"),
			want:     1.0,
		},
		{
			name:     "empty original scores zero",
			original: "",
			rebuilt:  echoA,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := structuralPreservation(tt.original, tt.rebuilt)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestStructuralPreservation_OverlapThreshold(t *testing.T) {
	// Ten content tokens: a single retained token sits exactly on the
	// match threshold. An eleventh pushes the same retention below it.
	ten := "alpha bravo charlie delta echo foxtrot golf hotel india juliet"
	eleven := ten + " kilo"
	rebuilt := "Only juliet remained present afterwards."

	assert.InDelta(t, 1.0, structuralPreservation(ten, rebuilt), 0.001)
	assert.Zero(t, structuralPreservation(eleven, rebuilt))
}

func TestCheck_Gates(t *testing.T) {
	v := New(config.QualityConfig{
		MinSemanticSimilarity:     0.3,
		MinStructuralPreservation: 0.5,
	})

	tests := []struct {
		name       string
		metrics    Metrics
		wantPass   bool
		wantReason string
	}{
		{
			name:     "both gates pass",
			metrics:  Metrics{SemanticSimilarity: 0.5, StructuralPreservation: 0.8},
			wantPass: true,
		},
		{
			name:       "similarity below gate",
			metrics:    Metrics{SemanticSimilarity: 0.2, StructuralPreservation: 0.8},
			wantReason: "semantic similarity",
		},
		{
			name:       "structure below gate",
			metrics:    Metrics{SemanticSimilarity: 0.5, StructuralPreservation: 0.4},
			wantReason: "structural preservation",
		},
		{
			name:       "similarity gate reported first",
			metrics:    Metrics{SemanticSimilarity: 0.1, StructuralPreservation: 0.1},
			wantReason: "semantic similarity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.Check(tt.metrics)
			assert.Equal(t, tt.wantPass, verdict.Pass)
			if tt.wantReason != "" {
				assert.Contains(t, verdict.Reason, tt.wantReason)
			} else {
				assert.Empty(t, verdict.Reason)
			}
		})
	}
}

func TestCheck_ZeroThresholdsDisableGates(t *testing.T) {
	v := New(config.QualityConfig{})

	verdict := v.Check(Metrics{SemanticSimilarity: 0, StructuralPreservation: 0})
	assert.True(t, verdict.Pass)
}

func TestRegressed(t *testing.T) {
	v := New(config.QualityConfig{RegressionTolerance: 0.5})

	tests := []struct {
		name     string
		achieved float64
		target   float64
		want     bool
	}{
		{"within tolerance", 0.14, 0.1, false},
		{"at the boundary", 0.15, 0.1, false},
		{"past the boundary", 0.151, 0.1, true},
		{"better than target", 0.09, 0.1, false},
		{"zero target disables check", 0.9, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Regressed(tt.achieved, tt.target))
		})
	}
}

func TestInspect_RecomputesFromStatements(t *testing.T) {
	doc := docOf(
		"The granite quarry supplied stone for the harbor wall daily",
		"Short statement here",
	)
	doc.Meta = spr.Metadata{OriginalWords: 100, Format: spr.FormatStandard}

	r := Inspect(doc)

	assert.Equal(t, 2, r.Statements)
	assert.Equal(t, 13, r.CompressedWords)
	assert.InDelta(t, 0.13, r.RecomputedRatio, 0.001)
	assert.Equal(t, 1, r.BoundViolations)
	assert.Equal(t, spr.FormatStandard, r.Format)
}

func TestInspect_MissingFormatFallsBackToStandard(t *testing.T) {
	doc := docOf("Short statement here")

	r := Inspect(doc)

	assert.Equal(t, spr.FormatStandard, r.Format)
	assert.Equal(t, 1, r.BoundViolations)
	assert.Zero(t, r.RecomputedRatio)
}
