// Package generative abstracts the text generation backend used by the
// compression and decompression pipelines.
//
// Two providers exist: a deterministic local synthesizer for offline use and
// tests, and an HTTP client with rate limiting, retries, and circuit
// breaking for real backends. Both honor the same word-bounded contract.
package generative

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/spr/internal/config"
	"github.com/fyrsmithlabs/spr/internal/logging"
)

// Generation failures.
var (
	// ErrServiceUnavailable marks a backend that cannot currently serve:
	// exhausted retries or an open circuit. Batch processing degrades the
	// affected item instead of blocking on it.
	ErrServiceUnavailable = errors.New("generative service unavailable")

	// ErrEmptyResponse marks a backend reply with no usable text.
	ErrEmptyResponse = errors.New("empty response from generative service")
)

// Style tells the backend what shape of text to produce.
type Style string

const (
	// StyleStatement distills content into one terse declarative statement.
	StyleStatement Style = "statement"
	// StyleClause extends a statement with a single qualifying clause.
	StyleClause Style = "clause"
	// StyleParagraph expands a statement into a contextual paragraph.
	StyleParagraph Style = "paragraph"
	// StyleNarrative expands a statement into background and implications.
	StyleNarrative Style = "narrative"
)

// Request asks for text derived from Content within a word budget.
type Request struct {
	// Instruction frames the task for remote backends; the local provider
	// ignores it.
	Instruction string
	// Content is the source material to compress or expand.
	Content string
	// MinWords..MaxWords bound the response size. MaxWords 0 means
	// unbounded above.
	MinWords int
	MaxWords int
	Style    Style
}

// Service produces word-bounded text. Implementations must be safe for
// concurrent use; batch workers share one instance.
type Service interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// New builds the provider selected by cfg. An empty provider means local.
func New(cfg config.GenerativeConfig, logger *logging.Logger) (Service, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocal(), nil
	case "http":
		return NewHTTPClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown generative provider %q", cfg.Provider)
	}
}

var (
	_ Service = (*Local)(nil)
	_ Service = (*HTTPClient)(nil)
)
