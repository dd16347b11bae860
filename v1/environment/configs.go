package environment

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the process-wide environment setting.
type Config struct {
	// AppEnv selects one of the recognised environments.
	// This setting can be configured via:
	//   - YAML configuration with the "app_env" key
	//   - Environment variable APP_ENV
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV" required:"true"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load environment config: %w", err)
	}
	return cfg, nil
}

// Environment parses AppEnv.
func (c Config) Environment() (Environment, error) {
	return Parse(c.AppEnv)
}
