package compress

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/spr/internal/logging"
	"github.com/fyrsmithlabs/spr/internal/text"
)

// optimizeStatements drops near-duplicate statements to minimize the
// compressed word count without losing distinct concepts. Statements are
// indexed in an in-memory vector collection as they are accepted; a new
// statement whose best match scores at or above the threshold is dropped
// along with its concept.
type optimizeStatements struct {
	threshold float64
	logger    *logging.Logger
}

func (optimizeStatements) Name() string { return "OptimizeStatements" }

func (s optimizeStatements) Run(ctx context.Context, d Draft) (Draft, error) {
	if len(d.Statements) < 2 {
		return d, nil
	}

	collection, err := chromem.NewDB().CreateCollection("statements", nil, termVectorEmbedding)
	if err != nil {
		return Draft{}, fmt.Errorf("create statement index: %w", err)
	}

	statements := d.Statements[:0:0]
	concepts := d.Concepts[:0:0]
	indexed := 0
	for i, stmt := range d.Statements {
		vec := text.TermVector(stmt.Text)
		if isZeroVector(vec) {
			// Nothing to compare against; keep but leave unindexed.
			statements = append(statements, stmt)
			concepts = append(concepts, d.Concepts[i])
			continue
		}

		if indexed > 0 {
			results, err := collection.Query(ctx, stmt.Text, 1, nil, nil)
			if err != nil {
				return Draft{}, fmt.Errorf("query statement index: %w", err)
			}
			if len(results) > 0 && float64(results[0].Similarity) >= s.threshold {
				s.logger.Debug(ctx, "near-duplicate statement dropped",
					zap.Int("ordinal", d.Concepts[i].Ordinal),
					zap.Float64("similarity", float64(results[0].Similarity)))
				continue
			}
		}

		err := collection.AddDocuments(ctx, []chromem.Document{{
			ID:        strconv.Itoa(i),
			Content:   stmt.Text,
			Embedding: vec,
		}}, 1)
		if err != nil {
			return Draft{}, fmt.Errorf("index statement: %w", err)
		}
		indexed++
		statements = append(statements, stmt)
		concepts = append(concepts, d.Concepts[i])
	}

	d.Statements = statements
	d.Concepts = concepts
	return d, nil
}

// termVectorEmbedding adapts the deterministic term vector to the
// collection's embedding contract.
func termVectorEmbedding(_ context.Context, doc string) ([]float32, error) {
	return text.TermVector(doc), nil
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
