// Package quality scores how faithfully a compression round trip preserved
// a source document.
//
// All metrics are deterministic text measures: the same document triple
// always produces the same scores, across runs and platforms. Semantic
// similarity is token-set Jaccard overlap between original and
// reconstructed prose; structural preservation is the fraction of original
// paragraphs that reappear, in order, in the reconstruction.
package quality

import (
	"fmt"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// matchOverlap is the minimum fraction of a source paragraph's content
// tokens that must reappear in a reconstructed paragraph to count as a
// structural match.
const matchOverlap = 0.1

// Metrics quantify one compression round trip.
type Metrics struct {
	// CompressionRatio is compressed words over original words.
	CompressionRatio float64 `json:"compression_ratio"`
	// ExpansionRatio is reconstructed words over compressed words.
	ExpansionRatio float64 `json:"expansion_ratio"`
	// SemanticSimilarity is the content-token Jaccard overlap between
	// original and reconstructed text, in [0, 1].
	SemanticSimilarity float64 `json:"semantic_similarity"`
	// StructuralPreservation is the fraction of original paragraphs with
	// an in-order counterpart in the reconstruction, in [0, 1].
	StructuralPreservation float64 `json:"structural_preservation"`
	// InformationLoss is 1 - SemanticSimilarity.
	InformationLoss float64 `json:"information_loss"`
}

// Measure computes the metric set for a full round trip. Word counts are
// recomputed from the documents, not read from headers.
func Measure(source spr.SourceDocument, doc *spr.Document, expanded *spr.ExpandedDocument) Metrics {
	var m Metrics

	originalWords := source.WordCount()
	compressedWords := doc.WordCount()
	if originalWords > 0 {
		m.CompressionRatio = float64(compressedWords) / float64(originalWords)
	}
	if compressedWords > 0 {
		m.ExpansionRatio = float64(expanded.WordCount()) / float64(compressedWords)
	}

	m.SemanticSimilarity = text.Jaccard(source.Content, expanded.Content)
	m.InformationLoss = 1 - m.SemanticSimilarity
	m.StructuralPreservation = structuralPreservation(source.Content, expanded.Content)
	return m
}

// structuralPreservation matches original paragraphs against reconstructed
// paragraphs greedily, in order: each source paragraph scans forward from
// the previous match, so a hit must preserve relative order to count.
func structuralPreservation(original, reconstructed string) float64 {
	source := text.Paragraphs(original)
	if len(source) == 0 {
		return 0
	}
	targets := text.Paragraphs(reconstructed)

	matched := 0
	next := 0
	for _, para := range source {
		for j := next; j < len(targets); j++ {
			if text.Overlap(para, targets[j]) >= matchOverlap {
				matched++
				next = j + 1
				break
			}
		}
	}
	return float64(matched) / float64(len(source))
}

// Verdict is the gate decision for one measured round trip.
type Verdict struct {
	Pass bool
	// Reason names the first gate that failed; empty on pass.
	Reason string
}

// Validator judges measured metrics against configured thresholds.
type Validator struct {
	cfg config.QualityConfig
}

// New builds a validator from quality thresholds.
func New(cfg config.QualityConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Check evaluates the quality gates in order and stops at the first
// failure. A threshold of zero disables its gate.
func (v *Validator) Check(m Metrics) Verdict {
	if v.cfg.MinSemanticSimilarity > 0 && m.SemanticSimilarity < v.cfg.MinSemanticSimilarity {
		return Verdict{Reason: fmt.Sprintf("semantic similarity %.2f below minimum %.2f",
			m.SemanticSimilarity, v.cfg.MinSemanticSimilarity)}
	}
	if v.cfg.MinStructuralPreservation > 0 && m.StructuralPreservation < v.cfg.MinStructuralPreservation {
		return Verdict{Reason: fmt.Sprintf("structural preservation %.2f below minimum %.2f",
			m.StructuralPreservation, v.cfg.MinStructuralPreservation)}
	}
	return Verdict{Pass: true}
}

// Regressed reports whether an achieved compression ratio overshot the
// requested target by more than the configured relative tolerance. A zero
// target disables the check.
func (v *Validator) Regressed(achieved, target float64) bool {
	if target <= 0 {
		return false
	}
	return achieved > target*(1+v.cfg.RegressionTolerance)
}

// DocumentReport is the structural health of a parsed SPR document,
// recomputed from its statements rather than trusted from headers.
type DocumentReport struct {
	Statements      int     `json:"statements"`
	CompressedWords int     `json:"compressed_words"`
	RecomputedRatio float64 `json:"recomputed_ratio"`
	// BoundViolations counts statements outside the format's word bounds.
	BoundViolations int `json:"bound_violations"`
	// Format is the effective format the bounds were judged against.
	Format spr.Format `json:"format"`
}

// Inspect recomputes structural metrics for a document on its own, without
// the source or reconstruction. Documents parsed from files with no format
// header are judged against the standard bounds.
func Inspect(doc *spr.Document) DocumentReport {
	format := doc.Meta.Format
	if !format.Valid() {
		format = spr.FormatStandard
	}

	r := DocumentReport{Statements: len(doc.Statements), Format: format}
	for _, s := range doc.Statements {
		n := s.WordCount()
		r.CompressedWords += n
		if !format.Fits(n) {
			r.BoundViolations++
		}
	}
	if doc.Meta.OriginalWords > 0 {
		r.RecomputedRatio = float64(r.CompressedWords) / float64(doc.Meta.OriginalWords)
	}
	return r
}
