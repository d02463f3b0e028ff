package compress

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/spr/internal/text"
)

// validateCompression enforces the format's word bounds. Violating
// concepts are regenerated up to retries times; statements still over the
// upper bound afterwards are truncated to it. If more than threshold of
// the statements remain out of bounds after regeneration, the document is
// rejected with ErrFormatViolation.
type validateCompression struct {
	gen       generator
	threshold float64
	retries   int
}

func (validateCompression) Name() string { return "ValidateCompression" }

func (s validateCompression) Run(ctx context.Context, d Draft) (Draft, error) {
	violating := s.violations(d)

	for attempt := 0; attempt < s.retries && len(violating) > 0; attempt++ {
		for _, i := range violating {
			stmt, err := s.gen.statement(ctx, d.Concepts[i])
			if err != nil {
				return Draft{}, fmt.Errorf("regenerate concept %d: %w", d.Concepts[i].Ordinal, err)
			}
			d.Statements[i] = stmt
		}
		violating = s.violations(d)
	}

	if frac := float64(len(violating)) / float64(len(d.Statements)); frac > s.threshold {
		return Draft{}, fmt.Errorf("%w: %d of %d statements outside %s bounds after %d retries",
			ErrFormatViolation, len(violating), len(d.Statements), s.gen.format, s.retries)
	}

	// Tolerated stragglers: over-long statements are cut to the upper
	// bound; under-length ones stay as generated, truncation cannot help
	// them.
	_, max := s.gen.format.Bounds()
	for _, i := range violating {
		if d.Statements[i].WordCount() > max {
			d.Statements[i].Text = text.TruncateWords(d.Statements[i].Text, max)
		}
	}

	return d, nil
}

func (s validateCompression) violations(d Draft) []int {
	var out []int
	for i, stmt := range d.Statements {
		if !s.gen.format.Fits(stmt.WordCount()) {
			out = append(out, i)
		}
	}
	return out
}
