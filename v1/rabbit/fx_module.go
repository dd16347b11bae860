package rabbit

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and configures the RabbitMQ client.
//
// The module provides:
// 1. *RabbitClient (concrete type) for direct use
// 2. The same instance as broker.Broker
// 3. Lifecycle management for connection monitoring and graceful shutdown
//
// Use either this module or kafka.FXModule; both provide broker.Broker.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    rabbit.FXModule,
//	    fx.Provide(rabbit.LoadConfig),
//	)
var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewClientWithDI,
		func(r *RabbitClient) broker.Broker { return r },
	),
	fx.Invoke(RegisterRabbitLifecycle),
)

// RabbitParams groups the dependencies needed to create a Rabbit client
type RabbitParams struct {
	fx.In

	Config   Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new RabbitMQ client using dependency injection.
// The optional logger and observer are attached when present.
func NewClientWithDI(params RabbitParams) (*RabbitClient, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	return client.WithObserver(params.Observer), nil
}

// RabbitLifecycleParams groups the dependencies needed for RabbitMQ lifecycle management
type RabbitLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *RabbitClient
}

// RegisterRabbitLifecycle registers the RabbitMQ client with the fx lifecycle system.
//
// The function:
//  1. On application start: Launches a background goroutine that re-dials
//     the connection when it drops.
//  2. On application stop: Shuts the client down and waits for the
//     goroutine to exit.
func RegisterRabbitLifecycle(params RabbitLifecycleParams) {
	wg := &sync.WaitGroup{}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Client.RetryConnection()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.Client.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
