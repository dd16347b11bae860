package environment

import "go.uber.org/fx"

// FXModule provides the process Environment, loaded from APP_ENV.
// Applications that already hold a Config can supply it with fx.Supply and
// use NewFromConfig instead.
var FXModule = fx.Module("environment",
	fx.Provide(
		LoadConfig,
		NewFromConfig,
	),
)

// NewFromConfig validates cfg and returns the Environment it selects.
// An invalid value fails application startup.
func NewFromConfig(cfg Config) (Environment, error) {
	return cfg.Environment()
}
