package tracer

import (
	"context"

	"github.com/Aleph-Alpha/topicstream/v1/logger"
	"go.uber.org/fx"
)

// FXModule provides a Uber FX module that configures distributed tracing.
//
// The module:
// 1. Provides the tracer client through NewClientWithDI
// 2. Registers shutdown hooks to flush spans on application termination
//
// Dependencies required by this module:
// - A tracer.Config and a *logger.Logger must be available in the container
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies needed to create a Tracer.
type TracerParams struct {
	fx.In

	Config Config
	Logger *logger.Logger
}

// NewClientWithDI creates a Tracer from injected dependencies.
func NewClientWithDI(params TracerParams) *Tracer {
	return NewClient(params.Config, params.Logger)
}

// RegisterTracerLifecycle registers shutdown hooks for the tracer with the FX lifecycle.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer == nil || tracer.tracer == nil {
				return nil
			}
			tracer.logger.Info("shutting down tracer", nil)
			return tracer.Shutdown(ctx)
		},
	})
}
