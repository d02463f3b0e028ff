package compress

import (
	"context"

	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// formatOutput assembles the final document: statements in concept order
// plus the metadata describing the run, including the achieved ratio.
type formatOutput struct {
	format spr.Format
}

func (formatOutput) Name() string { return "FormatOutput" }

func (s formatOutput) Run(ctx context.Context, d Draft) (*spr.Document, error) {
	if len(d.Statements) == 0 {
		return nil, spr.ErrNoStatements
	}

	doc := &spr.Document{Statements: d.Statements}

	original := d.Source.WordCount()
	compressed := doc.WordCount()
	ratio := 0.0
	if original > 0 {
		ratio = float64(compressed) / float64(original)
	}

	tctx, _ := tracing.FromContext(ctx)
	doc.Meta = spr.Metadata{
		OriginalWords:   original,
		CompressedWords: compressed,
		Ratio:           ratio,
		Format:          s.format,
		Generated:       timeNow().UTC(),
		TraceID:         tctx.TraceID,
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}
