package compress

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/spr/internal/generative"
	"github.com/fyrsmithlabs/spr/internal/redact"
	"github.com/fyrsmithlabs/spr/internal/spr"
)

const statementInstruction = "Distill the passage into one declarative statement capturing its central fact."

// generator turns one concept into one bounded statement. It is shared by
// GenerateStatements and the regeneration retries in ValidateCompression.
type generator struct {
	svc      generative.Service
	scrubber *redact.Scrubber
	format   spr.Format
}

func (g generator) statement(ctx context.Context, c Concept) (spr.Statement, error) {
	content := c.Text
	if g.scrubber.Enabled() {
		scrubbed, _, err := g.scrubber.Scrub(ctx, content)
		if err != nil {
			return spr.Statement{}, fmt.Errorf("scrub concept: %w", err)
		}
		content = scrubbed
	}

	min, max := g.format.Bounds()
	out, err := g.svc.Generate(ctx, generative.Request{
		Instruction: statementInstruction,
		Content:     content,
		MinWords:    min,
		MaxWords:    max,
		Style:       generative.StyleStatement,
	})
	if err != nil {
		return spr.Statement{}, err
	}

	concept := ""
	if len(c.Keywords) > 0 {
		concept = c.Keywords[0]
	}
	return spr.Statement{Text: strings.TrimSpace(out), Concept: concept}, nil
}

// generateStatements produces one statement per concept and removes
// exact-text duplicates, keeping the first occurrence. Surviving
// statements stay aligned with their concepts.
type generateStatements struct {
	gen generator
}

func (generateStatements) Name() string { return "GenerateStatements" }

func (s generateStatements) Run(ctx context.Context, set ConceptSet) (Draft, error) {
	statements := make([]spr.Statement, 0, len(set.Concepts))
	concepts := make([]Concept, 0, len(set.Concepts))
	seen := make(map[string]struct{}, len(set.Concepts))

	for _, c := range set.Concepts {
		stmt, err := s.gen.statement(ctx, c)
		if err != nil {
			return Draft{}, fmt.Errorf("concept %d: %w", c.Ordinal, err)
		}
		if _, dup := seen[stmt.Text]; dup {
			continue
		}
		seen[stmt.Text] = struct{}{}
		statements = append(statements, stmt)
		concepts = append(concepts, c)
	}

	if len(statements) == 0 {
		return Draft{}, spr.ErrNoStatements
	}

	return Draft{Source: set.Source, Concepts: concepts, Statements: statements}, nil
}
