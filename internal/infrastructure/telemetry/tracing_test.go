package telemetry_test

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

	"github.com/edusync/backend/internal/infrastructure/telemetry"
)

// recordSpans installs an in-memory recorder as the global tracer provider
// for the duration of the test
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartServiceSpan(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "sync", "course")
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sync.course", ended[0].Name())
}

func TestSetAttributes(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "sync.all")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntity, "course",
		telemetry.SpanAttrProcessed, 12,
		telemetry.SpanAttrErrors, 1,
		42, "dropped non-string key",
	)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)

	attrs := map[string]interface{}{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "course", attrs[telemetry.SpanAttrEntity])
	assert.EqualValues(t, 12, attrs[telemetry.SpanAttrProcessed])
	assert.EqualValues(t, 1, attrs[telemetry.SpanAttrErrors])
	assert.Len(t, attrs, 3)
}

func TestRecordError(t *testing.T) {
	sr := recordSpans(t)

	_, span := telemetry.StartSpan(context.Background(), "sync.student")
	telemetry.RecordError(span, errors.New("fetch student: status 502"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "fetch student: status 502", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)

	t.Run("nil error is ignored", func(t *testing.T) {
		_, span := telemetry.StartSpan(context.Background(), "sync.class")
		telemetry.RecordError(span, nil)
		span.End()

		last := sr.Ended()[len(sr.Ended())-1]
		assert.Equal(t, codes.Unset, last.Status().Code)
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	t.Run("empty without an active span", func(t *testing.T) {
		assert.Empty(t, telemetry.GetTraceID(context.Background()))
		assert.Empty(t, telemetry.GetSpanID(context.Background()))
	})

	t.Run("valid inside a recorded span", func(t *testing.T) {
		recordSpans(t)
		ctx, span := telemetry.StartSpan(context.Background(), "sync.enrollment")
		defer span.End()

		assert.Len(t, telemetry.GetTraceID(ctx), 32)
		assert.Len(t, telemetry.GetSpanID(ctx), 16)
	})
}
