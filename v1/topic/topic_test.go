package topic

import (
	"context"
	"testing"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersTopic() *Topic {
	return &Topic{
		Name:         "orders",
		Names:        Prefixed("orders"),
		Capabilities: Capabilities{Producible: true, Consumable: true, SchemaBound: true},
		Binding:      &SchemaBinding{Subject: "orders-value", Version: FixedVersion(1)},
		Handler:      func(context.Context, *Delivery, broker.Acker) error { return nil },
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	tp := ordersTopic()

	for _, env := range environment.All() {
		first, err := tp.PhysicalName(env)
		require.NoError(t, err)
		second, err := tp.PhysicalName(env)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, string(env)+".orders", first)
	}
}

func TestResolveUnknownEnvironment(t *testing.T) {
	name, err := ordersTopic().PhysicalName(environment.Environment("staging2"))

	require.Error(t, err)
	assert.Empty(t, name)
	assert.True(t, environment.IsUnknownEnvironmentError(err))
}

func TestResolveUndeclaredName(t *testing.T) {
	_, err := Resolve(Names{Production: "orders"}, environment.Staging)
	assert.ErrorIs(t, err, ErrUndeclaredName)

	name, err := Resolve(Names{Production: "orders"}, environment.Production)
	require.NoError(t, err)
	assert.Equal(t, "orders", name)
}

func TestCapabilityChecks(t *testing.T) {
	tp := &Topic{Name: "audit", Capabilities: Capabilities{Consumable: true}}

	assert.True(t, IsUnsupportedOperationError(tp.CheckProducible()))
	assert.ErrorIs(t, tp.CheckConsumable(), ErrUnsupportedOperation, "consumable without handler")

	tp.Handler = func(context.Context, *Delivery, broker.Acker) error { return nil }
	assert.NoError(t, tp.CheckConsumable())
}

func TestValidate(t *testing.T) {
	require.NoError(t, ordersTopic().Validate())

	tests := []struct {
		name   string
		mutate func(*Topic)
	}{
		{"empty name", func(tp *Topic) { tp.Name = "" }},
		{"missing binding", func(tp *Topic) { tp.Binding = nil }},
		{"missing subject", func(tp *Topic) { tp.Binding.Subject = "" }},
		{"missing policy", func(tp *Topic) { tp.Binding.Version = nil }},
		{"missing handler", func(tp *Topic) { tp.Handler = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := ordersTopic()
			tt.mutate(tp)
			assert.ErrorIs(t, tp.Validate(), ErrInvalidTopic)
		})
	}
}

func TestVersionPolicies(t *testing.T) {
	policy := VersionsByEnvironment(map[environment.Environment]int{environment.Production: 3}, 0)

	assert.Equal(t, 3, policy(environment.Production))
	assert.Equal(t, 0, policy(environment.Local))
	assert.Equal(t, 1, ordersTopic().SchemaVersion(environment.Local))
	assert.Equal(t, 0, (&Topic{}).SchemaVersion(environment.Local))
}
