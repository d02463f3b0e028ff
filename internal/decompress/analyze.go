package decompress

import (
	"context"
	"math"

	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// groupAffinity is the Jaccard similarity above which adjacent statements
// share a reconstructed paragraph.
const groupAffinity = 0.2

// parseSPR reads the persisted SPR format. A document with headers but no
// statement lines fails with ErrNoStatements.
type parseSPR struct{}

func (parseSPR) Name() string { return "ParseSPR" }

func (parseSPR) Run(_ context.Context, data []byte) (*spr.Document, error) {
	return spr.Parse(data)
}

// analyzeStructure derives the expansion plan: a word budget per statement
// from the expansion type's growth factor, the generation style, and the
// paragraph grouping of the statements.
type analyzeStructure struct {
	expansion spr.ExpansionType
	length    spr.TargetLength
}

func (analyzeStructure) Name() string { return "AnalyzeStructure" }

func (s analyzeStructure) Run(_ context.Context, doc *spr.Document) (Plan, error) {
	mult, style := expansionShape(s.expansion)

	budgets := make([]Budget, len(doc.Statements))
	for i, stmt := range doc.Statements {
		n := float64(stmt.WordCount())
		budgets[i] = Budget{
			Min: int(math.Round(n * mult * 0.9)),
			Max: int(math.Round(n * mult * 1.1)),
		}
	}

	return Plan{
		Doc:       doc,
		Expansion: s.expansion,
		Length:    s.length,
		Style:     style,
		Budgets:   budgets,
		Groups:    groupStatements(doc, s.expansion),
	}, nil
}

// expansionShape maps an expansion type to its growth factor and the
// style the generative service renders it in.
func expansionShape(e spr.ExpansionType) (float64, generative.Style) {
	switch e {
	case spr.ExpansionBrief:
		return 1.3, generative.StyleClause
	case spr.ExpansionComprehensive:
		return 5.0, generative.StyleNarrative
	default:
		return 3.0, generative.StyleParagraph
	}
}

// groupStatements decides which statements share an output paragraph.
// Brief output is one compact summary paragraph; otherwise adjacent
// statements merge while they keep sharing vocabulary.
func groupStatements(doc *spr.Document, expansion spr.ExpansionType) [][]int {
	if expansion == spr.ExpansionBrief {
		all := make([]int, len(doc.Statements))
		for i := range all {
			all[i] = i
		}
		return [][]int{all}
	}

	var groups [][]int
	for i := range doc.Statements {
		if i > 0 && text.Jaccard(doc.Statements[i-1].Text, doc.Statements[i].Text) >= groupAffinity {
			groups[len(groups)-1] = append(groups[len(groups)-1], i)
			continue
		}
		groups = append(groups, []int{i})
	}
	return groups
}
