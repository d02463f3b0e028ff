package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_UniqueIDs(t *testing.T) {
	a := New()
	b := New()

	assert.NotEmpty(t, a.TraceID)
	assert.NotEmpty(t, a.SpanID)
	assert.NotEqual(t, a.TraceID, b.TraceID)
	assert.NotEqual(t, a.SpanID, b.SpanID)
	assert.Empty(t, a.ParentSpanID)
}

func TestNew_TraceIDsSortByCreation(t *testing.T) {
	a := New()
	b := New()

	// ULIDs created later never sort before earlier ones thanks to the
	// monotonic entropy source.
	assert.LessOrEqual(t, a.TraceID, b.TraceID)
}

func TestChild(t *testing.T) {
	root := New()
	child := root.Child()

	assert.Equal(t, root.TraceID, child.TraceID)
	assert.NotEqual(t, root.SpanID, child.SpanID)
	assert.Equal(t, root.SpanID, child.ParentSpanID)
}

func TestContextCarriage(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	tc := New()
	ctx := WithContext(context.Background(), tc)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, tc, got)
}

func TestEnsure(t *testing.T) {
	ctx, tc := Ensure(context.Background())
	assert.False(t, tc.IsZero())

	ctx2, tc2 := Ensure(ctx)
	assert.Equal(t, tc, tc2, "existing trace identity is reused")
	assert.Equal(t, ctx, ctx2)
}
