// Package observability defines the hook that clients in this module use to
// report the operations they perform.
//
// Clients (kafka, rabbit, schema_registry, pipeline) accept an optional
// Observer and call ObserveOperation after every produce, consume, registry
// lookup and registration. The metrics package ships a Prometheus-backed
// Observer; tests usually plug in a small recording implementation.
//
//	type logObserver struct{}
//
//	func (logObserver) ObserveOperation(op observability.OperationContext) {
//	    log.Printf("%s.%s %s took %s", op.Component, op.Operation, op.Resource, op.Duration)
//	}
//
//	client = client.WithObserver(logObserver{})
package observability
