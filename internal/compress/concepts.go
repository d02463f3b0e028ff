package compress

import (
	"context"
	"sort"

	"github.com/fyrsmithlabs/spr/internal/text"
)

// conceptKeywords bounds how many salient terms each concept carries.
const conceptKeywords = 5

// extractConcepts maps each chunk to a concept unit keyed by its ordinal.
// Salience weighs a chunk's content tokens by their document-wide
// frequency, so chunks about the document's recurring subjects rank above
// asides.
type extractConcepts struct{}

func (extractConcepts) Name() string { return "ExtractConcepts" }

func (extractConcepts) Run(_ context.Context, a Analysis) (ConceptSet, error) {
	global := text.Frequencies(a.Source.Content)

	concepts := make([]Concept, 0, len(a.Chunks))
	for _, chunk := range a.Chunks {
		tokens := text.ContentTokens(chunk.Text)

		score := 0
		for _, t := range tokens {
			score += global[t]
		}
		salience := 0.0
		if len(tokens) > 0 {
			salience = float64(score) / float64(len(tokens))
		}

		concepts = append(concepts, Concept{
			Ordinal:  chunk.Ordinal,
			Text:     chunk.Text,
			Keywords: topKeywords(tokens, conceptKeywords),
			Salience: salience,
		})
	}

	return ConceptSet{Source: a.Source, Concepts: concepts}, nil
}

// topKeywords returns the k most frequent tokens, ties broken
// alphabetically so the result is stable.
func topKeywords(tokens []string, k int) []string {
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}

	unique := make([]string, 0, len(freq))
	for t := range freq {
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] != freq[unique[j]] {
			return freq[unique[i]] > freq[unique[j]]
		}
		return unique[i] < unique[j]
	})

	if len(unique) > k {
		unique = unique[:k]
	}
	return unique
}
