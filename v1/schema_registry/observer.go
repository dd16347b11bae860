package schema_registry

import (
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/observability"
)

// WithObserver sets the observer for this client and returns the client for method chaining.
// Every registry round trip is reported with component "schema_registry".
func (c *Client) WithObserver(observer observability.Observer) *Client {
	c.observer = observer
	return c
}

// WithLogger sets the logger for this client and returns the client for method chaining.
func (c *Client) WithLogger(logger Logger) *Client {
	c.logger = logger
	return c
}

// WithStore sets a shared second-level cache consulted before the registry.
func (c *Client) WithStore(store Store) *Client {
	c.store = store
	return c
}

// WithFormat sets the format used for registration and for schemas of the
// same type.
func (c *Client) WithFormat(format Format) *Client {
	c.format = format
	c.formats[format.Type()] = format
	return c
}

func (c *Client) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema_registry",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}
