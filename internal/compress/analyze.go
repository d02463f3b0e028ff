package compress

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// minChunkChars keeps sub-splitting from producing fragments too small to
// distill into a bounded statement.
const minChunkChars = 48

// validateInput rejects documents too small to compress meaningfully.
type validateInput struct {
	minWords int
}

func (validateInput) Name() string { return "ValidateInput" }

func (s validateInput) Run(_ context.Context, src spr.SourceDocument) (spr.SourceDocument, error) {
	if strings.TrimSpace(src.Content) == "" {
		return spr.SourceDocument{}, spr.ErrEmptyInput
	}
	if n := src.WordCount(); n < s.minWords {
		return spr.SourceDocument{}, fmt.Errorf("%w: %d words, need at least %d", spr.ErrInputTooShort, n, s.minWords)
	}
	return src, nil
}

// analyzeContent segments the source into paragraph-delimited chunks and
// fits the chunk count to the statement budget the ratio implies: adjacent
// paragraphs merge when there are too many, oversized paragraphs sub-split
// when there are too few.
type analyzeContent struct {
	format spr.Format
	ratio  float64
}

func (analyzeContent) Name() string { return "AnalyzeContent" }

func (s analyzeContent) Run(_ context.Context, src spr.SourceDocument) (Analysis, error) {
	paragraphs := text.Paragraphs(src.Content)
	target := targetStatements(src.WordCount(), s.ratio, s.format)

	var err error
	switch {
	case len(paragraphs) > target:
		paragraphs = mergeParagraphs(paragraphs, target)
	case len(paragraphs) < target:
		paragraphs, err = splitParagraphs(paragraphs, target)
		if err != nil {
			return Analysis{}, err
		}
	}

	chunks := make([]Chunk, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Ordinal: len(chunks),
			Text:    p,
			Words:   text.WordCount(p),
		})
	}

	return Analysis{Source: src, Chunks: chunks, TargetStatements: target}, nil
}

// targetStatements converts the ratio budget into a statement count,
// assuming statements land near the middle of the format's word bounds.
// The count is capped so the plan cannot exceed the original size.
func targetStatements(words int, ratio float64, format spr.Format) int {
	min, max := format.Bounds()
	mid := (min + max) / 2

	n := int(math.Round(float64(words) * ratio / float64(mid)))
	if n < 1 {
		n = 1
	}
	for n > 1 && n*mid > words {
		n--
	}
	return n
}

// mergeParagraphs joins adjacent paragraphs into at most target groups of
// roughly equal word weight, preserving order. The budget per group is
// recomputed from the words still unplaced so early oversized groups do
// not starve the remaining ones.
func mergeParagraphs(paragraphs []string, target int) []string {
	remaining := 0
	for _, p := range paragraphs {
		remaining += text.WordCount(p)
	}

	groups := make([]string, 0, target)
	var current []string
	words := 0
	for i, p := range paragraphs {
		n := text.WordCount(p)
		current = append(current, p)
		words += n
		remaining -= n

		groupsLeft := target - len(groups)
		if groupsLeft <= 1 {
			continue
		}
		fair := float64(words+remaining) / float64(groupsLeft)
		parasLeft := len(paragraphs) - i - 1
		if float64(words) >= fair || parasLeft <= groupsLeft-1 {
			groups = append(groups, strings.Join(current, "\n\n"))
			current, words = nil, 0
		}
	}
	if len(current) > 0 {
		groups = append(groups, strings.Join(current, "\n\n"))
	}
	return groups
}

// splitParagraphs sub-splits oversized paragraphs so the chunk count
// approaches target. Paragraph boundaries already present are kept.
func splitParagraphs(paragraphs []string, target int) ([]string, error) {
	total := 0
	for _, p := range paragraphs {
		total += utf8.RuneCountInString(p)
	}
	size := total / target
	if size < minChunkChars {
		size = minChunkChars
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(0),
	)

	out := make([]string, 0, target)
	for _, p := range paragraphs {
		if utf8.RuneCountInString(p) <= size {
			out = append(out, p)
			continue
		}
		pieces, err := splitter.SplitText(p)
		if err != nil {
			return nil, fmt.Errorf("split paragraph: %w", err)
		}
		out = append(out, pieces...)
	}
	return out, nil
}
