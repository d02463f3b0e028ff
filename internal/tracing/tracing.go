// Package tracing provides run-scoped correlation identities. Every
// pipeline run gets a trace id shared by all of its stages; each operation
// within the run gets its own span id. The ids travel by value and through
// context.Context, and the trace id is stamped into persisted SPR output
// so a file can be tied back to the run that produced it.
package tracing

import (
	"context"
	"crypto/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Context identifies one operation within a pipeline run.
type Context struct {
	// TraceID is shared by every operation in the run. ULIDs sort by
	// creation time, which keeps stored telemetry naturally ordered.
	TraceID string
	// SpanID identifies this operation.
	SpanID string
	// ParentSpanID is empty at the root of a run.
	ParentSpanID string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newTraceID returns a fresh ULID. The monotonic entropy source is not
// safe for concurrent use, hence the lock.
func newTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// New starts a trace for a pipeline run.
func New() Context {
	return Context{
		TraceID: newTraceID(),
		SpanID:  uuid.NewString(),
	}
}

// Child derives an operation context inside the same trace.
func (c Context) Child() Context {
	return Context{
		TraceID:      c.TraceID,
		SpanID:       uuid.NewString(),
		ParentSpanID: c.SpanID,
	}
}

// IsZero reports whether c carries no trace identity.
func (c Context) IsZero() bool {
	return c.TraceID == ""
}

type ctxKey struct{}

// WithContext stores the trace identity in ctx.
func WithContext(ctx context.Context, tc Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, tc)
}

// FromContext extracts the trace identity from ctx. The second return is
// false when none is stored.
func FromContext(ctx context.Context) (Context, bool) {
	tc, ok := ctx.Value(ctxKey{}).(Context)
	return tc, ok
}

// Ensure returns the trace identity from ctx, starting a new trace and
// storing it when absent.
func Ensure(ctx context.Context) (context.Context, Context) {
	if tc, ok := FromContext(ctx); ok {
		return ctx, tc
	}
	tc := New()
	return WithContext(ctx, tc), tc
}
