package postgres

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides the Postgres client and runs its health monitoring for
// the lifetime of the application.
//
//	app := fx.New(
//	    postgres.FXModule,
//	    fx.Provide(postgres.LoadConfig),
//	)
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams groups the dependencies needed to create a Postgres client.
type PostgresParams struct {
	fx.In

	Config Config
	Logger *logger.Logger `optional:"true"`
}

// NewPostgresClientWithDI creates a Postgres client from injected dependencies.
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	client, err := NewPostgres(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	return client, nil
}

// PostgresLifeCycleParams groups the dependencies needed for Postgres
// lifecycle management.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle starts connection monitoring and reconnection on
// application start and shuts the client down on stop, waiting for both
// goroutines to return.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The start context ends once startup completes.
			runCtx := context.WithoutCancel(ctx)

			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(runCtx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.Postgres.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
