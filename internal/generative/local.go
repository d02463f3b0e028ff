package generative

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/fyrsmithlabs/spr/internal/text"
)

// Local is a deterministic synthesizer standing in for a hosted model. It
// reduces content to salient words for statements and grows statements
// through fixed templates for expansions, so the same input always yields
// the same output. Stateless and safe for concurrent use.
type Local struct{}

// NewLocal returns the deterministic provider.
func NewLocal() *Local { return &Local{} }

// Generate implements Service.
func (l *Local) Generate(_ context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Content) == "" {
		return "", ErrEmptyResponse
	}
	if req.Style == StyleStatement {
		return l.statement(req)
	}
	return l.expand(req)
}

// statement distills content into its most salient distinct words, kept in
// original order, sized to the middle of the requested bound.
func (l *Local) statement(req Request) (string, error) {
	fields := text.Fields(req.Content)
	if len(fields) == 0 {
		return "", ErrEmptyResponse
	}

	target := targetWords(req)
	if target <= 0 || len(fields) <= target {
		return assemble(fields), nil
	}

	freq := text.Frequencies(req.Content)

	type scored struct {
		index  int
		weight int
	}
	ranked := make([]scored, len(fields))
	for i, f := range fields {
		key := strings.ToLower(trimEdges(f))
		ranked[i] = scored{index: i, weight: freq[key]}
	}
	// Highest weight first; ties resolve to the earlier position so the
	// selection is stable.
	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].weight != ranked[b].weight {
			return ranked[a].weight > ranked[b].weight
		}
		return ranked[a].index < ranked[b].index
	})

	// First pass keeps each distinct token once so a dominant term cannot
	// fill the whole statement; a second pass tops up from the remaining
	// occurrences when distinct tokens run out.
	keep := make([]int, 0, target)
	taken := make(map[int]bool, target)
	seen := make(map[string]bool, target)
	for _, s := range ranked {
		if len(keep) == target {
			break
		}
		key := strings.ToLower(trimEdges(fields[s.index]))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		taken[s.index] = true
		keep = append(keep, s.index)
	}
	for _, s := range ranked {
		if len(keep) == target {
			break
		}
		if taken[s.index] || trimEdges(fields[s.index]) == "" {
			continue
		}
		keep = append(keep, s.index)
	}
	sort.Ints(keep)

	selected := make([]string, 0, len(keep))
	for _, i := range keep {
		selected = append(selected, fields[i])
	}
	return assemble(selected), nil
}

// Elaboration sentences cycle through these, parameterized by the
// statement's content tokens.
var (
	paragraphTemplates = []string{
		"In context, %s works together with %s to carry the core idea.",
		"The emphasis on %s follows from how %s behaves in practice.",
		"Treating %s separately from %s would lose part of the picture.",
		"Here %s sets the frame while %s fills in the detail.",
	}
	narrativeTemplates = []string{
		"Background: %s has typically been understood through %s.",
		"One implication is that %s will keep shaping %s over time.",
		"A further consequence ties %s back to %s at a broader scale.",
		"Seen whole, %s and %s point to the same underlying theme.",
	}
)

// expand grows a statement into clause, paragraph, or narrative form.
func (l *Local) expand(req Request) (string, error) {
	lead := sentenceCase(req.Content)

	topics := text.ContentTokens(req.Content)
	if len(topics) == 0 {
		topics = text.Tokenize(req.Content)
	}
	if len(topics) == 0 {
		return "", ErrEmptyResponse
	}

	if req.Style == StyleClause {
		out := strings.TrimSuffix(lead, ".")
		out += fmt.Sprintf(", shaped chiefly by %s.", topics[0])
		return fitBudget(out, req), nil
	}

	templates := paragraphTemplates
	if req.Style == StyleNarrative {
		templates = append(append([]string{}, paragraphTemplates...), narrativeTemplates...)
	}

	floor := req.MinWords
	if floor <= 0 {
		floor = text.WordCount(lead) * 2
	}

	var b strings.Builder
	b.WriteString(lead)
	for i := 0; text.WordCount(b.String()) < floor && i < 256; i++ {
		tpl := templates[i%len(templates)]
		a := topics[i%len(topics)]
		z := topics[(i+1)%len(topics)]
		b.WriteString(" ")
		b.WriteString(fmt.Sprintf(tpl, a, z))
	}

	return fitBudget(b.String(), req), nil
}

// targetWords picks the statement size inside the requested bound.
func targetWords(req Request) int {
	switch {
	case req.MinWords > 0 && req.MaxWords > 0:
		return (req.MinWords + req.MaxWords) / 2
	case req.MaxWords > 0:
		return req.MaxWords
	default:
		return req.MinWords
	}
}

// fitBudget truncates to the upper bound, repairing the trailing period
// when truncation cuts mid-sentence.
func fitBudget(s string, req Request) string {
	if req.MaxWords <= 0 || text.WordCount(s) <= req.MaxWords {
		return s
	}
	out := text.TruncateWords(s, req.MaxWords)
	if !strings.HasSuffix(out, ".") {
		out = strings.TrimRight(out, ",;:") + "."
	}
	return out
}

func assemble(words []string) string {
	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		if t := trimEdges(w); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return text.TitleCase(strings.Join(cleaned, " "))
}

func sentenceCase(s string) string {
	out := text.TitleCase(strings.TrimSpace(s))
	if out == "" {
		return out
	}
	switch out[len(out)-1] {
	case '.', '!', '?':
		return out
	}
	return out + "."
}

func trimEdges(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
