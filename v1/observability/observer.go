package observability

import "time"

// Observer receives a notification for every observed operation.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the reporting package, e.g. "kafka" or "schema_registry".
	Component string

	// Operation is the action performed, e.g. "produce", "consume", "register".
	Operation string

	// Resource is the primary target, usually a physical topic or a subject.
	Resource string

	// SubResource narrows Resource, e.g. a partition, a key or a schema id.
	SubResource string

	// Duration is the wall-clock time the operation took.
	Duration time.Duration

	// Error is the operation's result; nil on success.
	Error error

	// Size is the payload size in bytes, if meaningful.
	Size int64

	// Metadata carries optional extra attributes.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
