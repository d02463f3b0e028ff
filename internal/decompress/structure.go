package decompress

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/spr/internal/spr"
	"github.com/fyrsmithlabs/spr/internal/text"
	"github.com/fyrsmithlabs/spr/internal/tracing"
)

// structureContent arranges passages into the planned paragraphs and
// applies the target length cap.
type structureContent struct{}

func (structureContent) Name() string { return "StructureContent" }

func (s structureContent) Run(_ context.Context, d Draft) (Assembly, error) {
	paragraphs := make([]string, 0, len(d.Groups))
	for _, group := range d.Groups {
		parts := make([]string, 0, len(group))
		for _, i := range group {
			parts = append(parts, d.Passages[i])
		}
		paragraphs = append(paragraphs, strings.Join(parts, " "))
	}

	if limit := d.Length.Cap(); limit > 0 {
		paragraphs = capParagraphs(paragraphs, limit)
	}

	return Assembly{Doc: d.Doc, Expansion: d.Expansion, Paragraphs: paragraphs}, nil
}

// capParagraphs trims to at most limit words, cutting inside the
// paragraph that crosses the limit and dropping the rest.
func capParagraphs(paragraphs []string, limit int) []string {
	out := make([]string, 0, len(paragraphs))
	used := 0
	for _, p := range paragraphs {
		n := text.WordCount(p)
		if used+n <= limit {
			out = append(out, p)
			used += n
			continue
		}
		if room := limit - used; room > 0 {
			cut := text.TruncateWords(p, room)
			if !strings.HasSuffix(cut, ".") {
				cut = strings.TrimRight(cut, ",;:") + "."
			}
			out = append(out, cut)
		}
		break
	}
	return out
}

// polishOutput produces the final expanded document with the achieved
// expansion ratio.
type polishOutput struct{}

func (polishOutput) Name() string { return "PolishOutput" }

func (polishOutput) Run(ctx context.Context, a Assembly) (*spr.ExpandedDocument, error) {
	content := strings.TrimSpace(strings.Join(a.Paragraphs, "\n\n"))

	ratio := 0.0
	if compressed := a.Doc.WordCount(); compressed > 0 {
		ratio = float64(text.WordCount(content)) / float64(compressed)
	}

	tctx, _ := tracing.FromContext(ctx)
	return &spr.ExpandedDocument{
		Content:        content,
		Expansion:      a.Expansion,
		ExpansionRatio: ratio,
		TraceID:        tctx.TraceID,
	}, nil
}
