package topic

import (
	"fmt"

	"github.com/Aleph-Alpha/topicstream/v1/environment"
)

// Names holds one physical topic name per environment.
type Names struct {
	Development string `yaml:"development"`
	Local       string `yaml:"local"`
	Production  string `yaml:"production"`
	Staging     string `yaml:"staging"`
	Testing     string `yaml:"testing"`
}

// Resolve returns the physical name for env. It has no side effects and
// never falls back to another environment's name.
func Resolve(names Names, env environment.Environment) (string, error) {
	var name string

	switch env {
	case environment.Development:
		name = names.Development
	case environment.Local:
		name = names.Local
	case environment.Production:
		name = names.Production
	case environment.Staging:
		name = names.Staging
	case environment.Testing:
		name = names.Testing
	default:
		return "", env.Validate()
	}

	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrUndeclaredName, env)
	}
	return name, nil
}

// Prefixed builds Names by prefixing base with "<env>.", e.g. "production.orders".
func Prefixed(base string) Names {
	return Names{
		Development: string(environment.Development) + "." + base,
		Local:       string(environment.Local) + "." + base,
		Production:  string(environment.Production) + "." + base,
		Staging:     string(environment.Staging) + "." + base,
		Testing:     string(environment.Testing) + "." + base,
	}
}
