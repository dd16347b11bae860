package environment

import (
	"errors"
	"fmt"
)

// Environment identifies the deployment environment of the running process.
type Environment string

const (
	Development Environment = "development"
	Local       Environment = "local"
	Production  Environment = "production"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
)

// ErrUnknownEnvironment is returned for any value outside the five recognised environments.
var ErrUnknownEnvironment = errors.New("unknown environment")

// All returns the recognised environments in a stable order.
func All() []Environment {
	return []Environment{Development, Local, Production, Staging, Testing}
}

// Parse converts a raw string into an Environment.
// The comparison is exact; "Production" or "staging2" are rejected.
func Parse(value string) (Environment, error) {
	env := Environment(value)
	if err := env.Validate(); err != nil {
		return "", err
	}
	return env, nil
}

// Validate returns ErrUnknownEnvironment if e is not one of the recognised values.
func (e Environment) Validate() error {
	switch e {
	case Development, Local, Production, Staging, Testing:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnvironment, string(e))
	}
}

// String implements fmt.Stringer.
func (e Environment) String() string {
	return string(e)
}

// IsUnknownEnvironmentError checks if the error is an unknown environment error.
func IsUnknownEnvironmentError(err error) bool {
	return errors.Is(err, ErrUnknownEnvironment)
}
