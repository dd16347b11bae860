package kafka

import (
	"context"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and configures the Kafka client.
//
// The module:
// 1. Provides *KafkaClient and the same instance as broker.Broker
// 2. Invokes the lifecycle registration to shut the client down on stop
//
// Use either this module or rabbit.FXModule; both provide broker.Broker.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    kafka.FXModule,
//	    fx.Provide(kafka.LoadConfig),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
		func(k *KafkaClient) broker.Broker { return k },
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create a Kafka client
type KafkaParams struct {
	fx.In

	Config   Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new Kafka client using dependency injection.
// The optional logger and observer are attached when present.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	return client.WithObserver(params.Observer), nil
}

// KafkaLifecycleParams groups the dependencies needed for Kafka lifecycle management
type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *KafkaClient
}

// RegisterKafkaLifecycle registers the Kafka client with the fx lifecycle system.
// On stop, running subscriptions are cancelled and the writer is flushed and closed.
func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Client.logger != nil {
				params.Client.logger.Info("Kafka client initialized", nil, map[string]interface{}{
					"brokers":  params.Client.cfg.Brokers,
					"group_id": params.Client.cfg.GroupID,
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return params.Client.GracefulShutdown()
		},
	})
}
