package decompress

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/redact"
)

const expandInstruction = "Reconstruct the prose this statement distills, preserving its claims."

// expander turns one concept into one budgeted passage. Statement text is
// scrubbed before it reaches the generative backend.
type expander struct {
	svc      generative.Service
	scrubber *redact.Scrubber
	style    generative.Style
}

func (e expander) passage(ctx context.Context, c Concept, b Budget) (string, error) {
	content := c.Text
	if e.scrubber.Enabled() {
		scrubbed, _, err := e.scrubber.Scrub(ctx, content)
		if err != nil {
			return "", fmt.Errorf("scrub statement: %w", err)
		}
		content = scrubbed
	}

	out, err := e.svc.Generate(ctx, generative.Request{
		Instruction: expandInstruction,
		Content:     content,
		MinWords:    b.Min,
		MaxWords:    b.Max,
		Style:       e.style,
	})
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", generative.ErrEmptyResponse
	}
	return out, nil
}

// expandConcepts reconstructs a passage per concept, keeping passages
// index-aligned with the statements they grow from.
type expandConcepts struct {
	exp expander
}

func (expandConcepts) Name() string { return "ExpandConcepts" }

func (s expandConcepts) Run(ctx context.Context, o Outline) (Draft, error) {
	passages := make([]string, len(o.Concepts))
	for i, c := range o.Concepts {
		p, err := s.exp.passage(ctx, c, o.Budgets[i])
		if err != nil {
			return Draft{}, fmt.Errorf("statement %d: %w", c.Ordinal, err)
		}
		passages[i] = p
	}
	return Draft{Outline: o, Passages: passages}, nil
}
