package topic

import (
	"context"
	"fmt"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
)

// Capabilities declares which operations a topic supports.
type Capabilities struct {
	Producible  bool
	Consumable  bool
	SchemaBound bool
}

// VersionPolicy picks the schema version to use in an environment.
// Zero means the latest registered version.
type VersionPolicy func(env environment.Environment) int

// FixedVersion returns a policy that uses version in every environment.
func FixedVersion(version int) VersionPolicy {
	return func(environment.Environment) int { return version }
}

// VersionsByEnvironment returns a policy backed by a lookup table. Missing
// environments fall back to fallback.
func VersionsByEnvironment(versions map[environment.Environment]int, fallback int) VersionPolicy {
	return func(env environment.Environment) int {
		if v, ok := versions[env]; ok {
			return v
		}
		return fallback
	}
}

// SchemaBinding ties a schema-bound topic to a registry subject.
type SchemaBinding struct {
	Subject string
	Version VersionPolicy
}

// Delivery is a received message after decoding.
type Delivery struct {
	broker.Message

	// Value is the decoded body for schema-bound topics; otherwise the raw
	// body bytes.
	Value any

	// SchemaID is the id read from the envelope, zero when not schema-bound.
	SchemaID uint32
}

// Handler processes one decoded message.
type Handler func(ctx context.Context, d *Delivery, acker broker.Acker) error

// Topic is a logical topic declaration.
type Topic struct {
	// Name is the environment-independent identity.
	Name string

	Names        Names
	Capabilities Capabilities
	Binding      *SchemaBinding
	Handler      Handler
}

// PhysicalName resolves the topic's name for env.
func (t *Topic) PhysicalName(env environment.Environment) (string, error) {
	name, err := Resolve(t.Names, env)
	if err != nil {
		return "", fmt.Errorf("resolving topic %q: %w", t.Name, err)
	}
	return name, nil
}

// SchemaVersion returns the binding's version for env.
func (t *Topic) SchemaVersion(env environment.Environment) int {
	if t.Binding == nil || t.Binding.Version == nil {
		return 0
	}
	return t.Binding.Version(env)
}

// Validate checks that the declaration is internally consistent.
func (t *Topic) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTopic)
	}
	if t.Capabilities.SchemaBound {
		if t.Binding == nil || t.Binding.Subject == "" {
			return fmt.Errorf("%w: %q is schema-bound without a subject", ErrInvalidTopic, t.Name)
		}
		if t.Binding.Version == nil {
			return fmt.Errorf("%w: %q is schema-bound without a version policy", ErrInvalidTopic, t.Name)
		}
	}
	if t.Capabilities.Consumable && t.Handler == nil {
		return fmt.Errorf("%w: %q is consumable without a handler", ErrInvalidTopic, t.Name)
	}
	return nil
}

// CheckProducible returns ErrUnsupportedOperation unless the topic is producible.
func (t *Topic) CheckProducible() error {
	if !t.Capabilities.Producible {
		return fmt.Errorf("%w: topic %q is not producible", ErrUnsupportedOperation, t.Name)
	}
	return nil
}

// CheckConsumable returns ErrUnsupportedOperation unless the topic is
// consumable and has a handler.
func (t *Topic) CheckConsumable() error {
	if !t.Capabilities.Consumable {
		return fmt.Errorf("%w: topic %q is not consumable", ErrUnsupportedOperation, t.Name)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: topic %q has no handler", ErrUnsupportedOperation, t.Name)
	}
	return nil
}
