package decompress

import (
	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// Request asks for one SPR document to be reconstructed into prose.
// Zero-valued options fall back to the pipeline's configured defaults.
type Request struct {
	// Path identifies the origin for logs and batch reports; empty for
	// stdin.
	Path      string
	Data      []byte
	Expansion spr.ExpansionType
	Length    spr.TargetLength
}

// Budget is the word range one statement's expansion should land in.
type Budget struct {
	Min int
	Max int
}

// Plan is the parsed document plus the expansion shape derived from it:
// per-statement word budgets, the generation style, and the paragraph
// grouping of the statements.
type Plan struct {
	Doc       *spr.Document
	Expansion spr.ExpansionType
	Length    spr.TargetLength
	Style     generative.Style
	// Budgets is index-aligned with Doc.Statements.
	Budgets []Budget
	// Groups lists statement indices per output paragraph, in order.
	Groups [][]int
}

// WordCount reports the compressed size the plan starts from.
func (p Plan) WordCount() int { return p.Doc.WordCount() }

// Concept is one statement prepared for expansion, with the salient terms
// recovered from the statement text.
type Concept struct {
	Ordinal  int
	Text     string
	Keywords []string
}

// Outline is the plan with concepts recovered for each statement.
type Outline struct {
	Plan
	// Concepts is index-aligned with Plan.Doc.Statements.
	Concepts []Concept
}

// Draft holds the expanded passages, index-aligned with the statements
// they were reconstructed from.
type Draft struct {
	Outline
	Passages []string
}

// WordCount reports the reconstructed size so far.
func (d Draft) WordCount() int {
	total := 0
	for _, p := range d.Passages {
		total += text.WordCount(p)
	}
	return total
}

// Assembly is the reconstructed prose arranged into paragraphs.
type Assembly struct {
	Doc        *spr.Document
	Expansion  spr.ExpansionType
	Paragraphs []string
}

// WordCount reports the assembled size.
func (a Assembly) WordCount() int {
	total := 0
	for _, p := range a.Paragraphs {
		total += text.WordCount(p)
	}
	return total
}
