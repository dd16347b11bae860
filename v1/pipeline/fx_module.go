package pipeline

import (
	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/Aleph-Alpha/topicstream/v1/tracer"
	"go.uber.org/fx"
)

// FXModule provides *Producer and *Consumer.
//
// It needs a broker.Broker (kafka.FXModule or rabbit.FXModule) and an
// environment.Environment (environment.FXModule). The schema registry,
// logger, observer, tracer and consumer error hook (deadletter.FXModule) are
// picked up when present.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    environment.FXModule,
//	    kafka.FXModule,
//	    schema_registry.FXModule,
//	    pipeline.FXModule,
//	    fx.Provide(kafka.LoadConfig, schema_registry.LoadConfig),
//	    fx.Invoke(func(p *pipeline.Producer) { ... }),
//	)
var FXModule = fx.Module("pipeline",
	fx.Provide(
		NewProducerWithDI,
		NewConsumerWithDI,
	),
)

// PipelineParams groups the dependencies shared by Producer and Consumer.
type PipelineParams struct {
	fx.In

	Broker      broker.Broker
	Environment environment.Environment
	Registry    schema_registry.Registry `optional:"true"`
	Logger      *logger.Logger           `optional:"true"`
	Observer    observability.Observer   `optional:"true"`
	Tracer      *tracer.Tracer           `optional:"true"`
	ErrorHook   ErrorHook                `optional:"true"`
}

// NewProducerWithDI creates a Producer using dependency injection.
func NewProducerWithDI(params PipelineParams) *Producer {
	p := NewProducer(params.Broker, params.Registry, params.Environment).
		WithObserver(params.Observer).
		WithTracer(params.Tracer)
	if params.Logger != nil {
		p.WithLogger(params.Logger)
	}
	return p
}

// NewConsumerWithDI creates a Consumer using dependency injection.
func NewConsumerWithDI(params PipelineParams) *Consumer {
	c := NewConsumer(params.Broker, params.Registry, params.Environment).
		WithObserver(params.Observer).
		WithTracer(params.Tracer).
		WithErrorHook(params.ErrorHook)
	if params.Logger != nil {
		c.WithLogger(params.Logger)
	}
	return c
}
