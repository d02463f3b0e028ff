package compress

import (
	"errors"

	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// ErrFormatViolation is returned when too many statements remain outside
// the format's word bounds after regeneration.
var ErrFormatViolation = errors.New("statement format bounds violated")

// Request asks for one document to be compressed. Zero-valued Format and
// Ratio fall back to the pipeline's configured defaults.
type Request struct {
	Source spr.SourceDocument
	Format spr.Format
	// Ratio is the target compressed/original word ratio in (0, 1].
	Ratio float64
}

// Chunk is one paragraph-scale segment of the source document.
type Chunk struct {
	// Ordinal is the chunk's position in the source, counted from zero.
	Ordinal int
	Text    string
	Words   int
}

// Analysis is the segmented source plus the statement budget derived from
// the requested ratio.
type Analysis struct {
	Source spr.SourceDocument
	Chunks []Chunk
	// TargetStatements is how many statements the ratio budget calls for.
	TargetStatements int
}

// WordCount sums the words across all chunks.
func (a Analysis) WordCount() int {
	total := 0
	for _, c := range a.Chunks {
		total += c.Words
	}
	return total
}

// Concept is the distillable unit extracted from one chunk. Ordinals
// preserve source order end to end.
type Concept struct {
	Ordinal int
	Text    string
	// Keywords are the chunk's highest-frequency content tokens.
	Keywords []string
	// Salience weighs the chunk's tokens by their document-wide frequency.
	Salience float64
}

// ConceptSet carries the ordered concepts toward statement generation.
type ConceptSet struct {
	Source   spr.SourceDocument
	Concepts []Concept
}

// WordCount sums the words across all concept texts.
func (c ConceptSet) WordCount() int {
	total := 0
	for _, concept := range c.Concepts {
		total += text.WordCount(concept.Text)
	}
	return total
}

// Draft pairs generated statements with the concepts they came from.
// Statements[i] was generated from Concepts[i]; stages that drop a
// statement drop its concept with it.
type Draft struct {
	Source     spr.SourceDocument
	Concepts   []Concept
	Statements []spr.Statement
}

// WordCount sums the words across all draft statements.
func (d Draft) WordCount() int {
	total := 0
	for _, s := range d.Statements {
		total += s.WordCount()
	}
	return total
}
