package schema_registry

import (
	"context"

	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/Aleph-Alpha/topicstream/v1/redis"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and configures the Schema Registry client.
//
// The module:
// 1. Provides *Client and the same instance as Registry
// 2. Invokes the lifecycle registration to manage the client's lifecycle
//
// When a *redis.RedisClient is available in the container it is used as the
// shared schema store.
//
// Usage:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(schema_registry.LoadConfig),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) Registry { return c },
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create a Schema Registry client
type SchemaRegistryParams struct {
	fx.In

	Config   Config
	Logger   *logger.Logger         `optional:"true"`
	Observer observability.Observer `optional:"true"`
	Redis    *redis.RedisClient     `optional:"true"`
}

// NewClientWithDI creates a new Schema Registry client using dependency injection.
func NewClientWithDI(params SchemaRegistryParams) (*Client, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Redis != nil {
		client.WithStore(NewRedisStore(params.Redis, params.Config.StoreKeyPrefix))
	}
	return client.WithObserver(params.Observer), nil
}

// SchemaRegistryLifecycleParams groups the dependencies needed for Schema Registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterSchemaRegistryLifecycle logs client start and releases idle HTTP
// connections on stop.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Client.logger != nil {
				params.Client.logger.Info("schema registry client initialized", nil, map[string]interface{}{
					"url":         params.Client.url,
					"schema_type": string(params.Client.format.Type()),
				})
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Client.httpClient.CloseIdleConnections()
			return nil
		},
	})
}
