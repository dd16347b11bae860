package deadletter

import (
	"context"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"github.com/Aleph-Alpha/topicstream/v1/pipeline"
	"github.com/Aleph-Alpha/topicstream/v1/postgres"
	"go.uber.org/fx"
)

// FXModule stores failed consumer messages in Postgres. It provides the
// Store, a Replayer and the pipeline.ErrorHook that pipeline.FXModule hands
// to the Consumer, and migrates the table on start.
//
//	app := fx.New(
//	    postgres.FXModule,
//	    deadletter.FXModule,
//	    pipeline.FXModule,
//	    ...
//	)
var FXModule = fx.Module("deadletter",
	fx.Provide(
		NewPostgresStoreWithDI,
		func(s *PostgresStore) Store { return s },
		NewHookWithDI,
		NewReplayerWithDI,
	),
	fx.Invoke(RegisterDeadLetterLifecycle),
)

// NewPostgresStoreWithDI creates the store on the injected Postgres client.
func NewPostgresStoreWithDI(pg *postgres.Postgres) *PostgresStore {
	return NewPostgresStore(pg)
}

// DeadLetterParams groups the optional dependencies of the hook and replayer.
type DeadLetterParams struct {
	fx.In

	Store  Store
	Logger *logger.Logger `optional:"true"`
}

// NewHookWithDI creates the consumer error hook.
func NewHookWithDI(params DeadLetterParams) pipeline.ErrorHook {
	if params.Logger == nil {
		return Hook(params.Store, nil)
	}
	return Hook(params.Store, params.Logger)
}

// ReplayerParams groups the dependencies of the Replayer.
type ReplayerParams struct {
	fx.In

	Store  Store
	Broker broker.Broker
	Logger *logger.Logger `optional:"true"`
}

// NewReplayerWithDI creates a Replayer using dependency injection.
func NewReplayerWithDI(params ReplayerParams) *Replayer {
	r := NewReplayer(params.Store, params.Broker)
	if params.Logger != nil {
		r.WithLogger(params.Logger)
	}
	return r
}

// RegisterDeadLetterLifecycle migrates the dead_letters table on application
// start.
func RegisterDeadLetterLifecycle(lc fx.Lifecycle, store *PostgresStore) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.Migrate(ctx)
		},
	})
}
