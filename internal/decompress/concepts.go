package decompress

import (
	"context"
	"sort"

	"github.com/fyrsmithlabs/spr/internal/text"
)

// conceptTermCount bounds the salient terms recovered per statement.
const conceptTermCount = 3

// reconstructConcepts recovers a concept per statement. Statements parsed
// from disk carry no concept labels, so the salient terms are re-derived:
// a statement's content tokens ranked by how often they recur across the
// whole document.
type reconstructConcepts struct{}

func (reconstructConcepts) Name() string { return "ReconstructConcepts" }

func (reconstructConcepts) Run(_ context.Context, p Plan) (Outline, error) {
	global := text.Frequencies(p.Doc.Text())

	concepts := make([]Concept, len(p.Doc.Statements))
	for i, stmt := range p.Doc.Statements {
		concepts[i] = Concept{
			Ordinal:  i,
			Text:     stmt.Text,
			Keywords: conceptTerms(stmt.Text, global),
		}
	}

	return Outline{Plan: p, Concepts: concepts}, nil
}

// conceptTerms ranks a statement's distinct content tokens by document
// frequency, ties keeping first-mention order.
func conceptTerms(s string, global map[string]int) []string {
	tokens := text.ContentTokens(s)

	seen := make(map[string]bool, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		unique = append(unique, t)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return global[unique[i]] > global[unique[j]]
	})

	if len(unique) > conceptTermCount {
		unique = unique[:conceptTermCount]
	}
	return unique
}
