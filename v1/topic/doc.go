// Package topic declares logical topics and resolves them to physical names.
//
// A Topic has an environment-independent Name, one physical name per
// environment, an explicit Capabilities value, and, when schema-bound, a
// SchemaBinding naming the registry subject and the version to use in each
// environment.
//
//	orders := &topic.Topic{
//		Name:         "orders",
//		Names:        topic.Prefixed("orders"),
//		Capabilities: topic.Capabilities{Producible: true, Consumable: true, SchemaBound: true},
//		Binding:      &topic.SchemaBinding{Subject: "orders-value", Version: topic.FixedVersion(1)},
//		Handler:      handleOrder,
//	}
//
//	name, err := orders.PhysicalName(environment.Production) // "production.orders"
//
// Resolution is a pure function of the declared names and the environment
// passed in; nothing is read from process state.
package topic
