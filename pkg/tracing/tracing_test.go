package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), Config{ServiceName: "bookshelf"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := StartSpan(context.Background(), "test", "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid(), "未启用时不产生Span")
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp, err := NewProvider(context.Background(), Config{ServiceName: "bookshelf"}, sdktrace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, root := StartSpan(context.Background(), "enrich", "lookup")
	traceID := ExtractTraceID(ctx)
	assert.NotEmpty(t, traceID)

	childCtx, child := StartSpan(ctx, "enrich", "openlibrary")
	assert.Equal(t, traceID, ExtractTraceID(childCtx), "子Span与根Span属于同一条链路")
	EndSpan(child, errors.New("status 503"))
	EndSpan(root, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "openlibrary", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1, "错误记录为事件")
	assert.Equal(t, "lookup", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestExtractTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, ExtractTraceID(context.Background()))
}
