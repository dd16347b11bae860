package tracer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	traceSpan "go.opentelemetry.io/otel/trace"
)

type nopLogger struct{}

func (nopLogger) Info(string, error, ...map[string]interface{})  {}
func (nopLogger) Fatal(string, error, ...map[string]interface{}) {}

func TestCarrierRoundTrip(t *testing.T) {
	tr := NewClient(Config{ServiceName: "test"}, nopLogger{})
	defer func() { _ = tr.Shutdown(context.Background()) }()

	ctx, span := tr.StartSpan(context.Background(), "produce")
	defer span.End()

	carrier := tr.GetCarrier(ctx)
	require.Contains(t, carrier, "traceparent")

	restored := tr.SetCarrierOnContext(context.Background(), carrier)
	got := traceSpan.SpanContextFromContext(restored)
	assert.Equal(t, span.SpanContext().TraceID(), got.TraceID())
	assert.True(t, got.IsRemote())
}

func TestRecordErrorOnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tr := NewClient(Config{ServiceName: "test"}, nopLogger{}, trace.WithSpanProcessor(recorder))
	defer func() { _ = tr.Shutdown(context.Background()) }()

	_, span := tr.StartSpan(context.Background(), "consume")
	tr.SetAttributes(span, map[string]interface{}{"topic": "orders", "offset": int64(3)})
	tr.RecordErrorOnSpan(span, errors.New("decode failed"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "decode failed", ended[0].Status().Description)
	assert.Len(t, ended[0].Attributes(), 2)
}
