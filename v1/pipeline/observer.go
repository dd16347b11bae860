package pipeline

import (
	"context"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/Aleph-Alpha/topicstream/v1/tracer"
	traceSpan "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Logger is the subset of the logger package used by the pipelines.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// instrumentation holds the optional logger, observer and tracer shared by
// Producer and Consumer.
type instrumentation struct {
	logger   Logger
	observer observability.Observer
	tracer   *tracer.Tracer
}

func (i *instrumentation) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if i.observer == nil {
		return
	}

	i.observer.ObserveOperation(observability.OperationContext{
		Component:   "pipeline",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}

// startSpan starts a span when a tracer is configured and returns a no-op
// span otherwise.
func (i *instrumentation) startSpan(ctx context.Context, name string, attrs map[string]interface{}) (context.Context, traceSpan.Span) {
	if i.tracer == nil {
		return ctx, noop.Span{}
	}
	ctx, span := i.tracer.StartSpan(ctx, name)
	i.tracer.SetAttributes(span, attrs)
	return ctx, span
}

func (i *instrumentation) recordError(span traceSpan.Span, err error) {
	if i.tracer != nil && err != nil {
		i.tracer.RecordErrorOnSpan(span, err)
	}
}

func (i *instrumentation) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if i.logger != nil {
		i.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (i *instrumentation) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if i.logger != nil {
		i.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (i *instrumentation) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if i.logger != nil {
		i.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
