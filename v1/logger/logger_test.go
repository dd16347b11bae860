package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(tracing bool) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewWithZap(zap.New(core), tracing), logs
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLevel(Debug))
	assert.Equal(t, zap.InfoLevel, parseLevel(Info))
	assert.Equal(t, zap.WarnLevel, parseLevel(Warning))
	assert.Equal(t, zap.ErrorLevel, parseLevel(Error))
	assert.Equal(t, zap.InfoLevel, parseLevel("verbose"))
}

func TestErrorIncludesErrorAndFields(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.Error("send failed", errors.New("boom"), map[string]interface{}{"topic": "orders"})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "orders", fields["topic"])
}

func TestWithContextAddsTraceFields(t *testing.T) {
	log, logs := newObservedLogger(true)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	log.InfoWithContext(ctx, "handled", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestWithContextWithoutTracing(t *testing.T) {
	log, logs := newObservedLogger(false)

	log.WarnWithContext(context.Background(), "no span", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["trace_id"]
	assert.False(t, ok)
}
