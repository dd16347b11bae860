package pipeline

import "errors"

var (
	// ErrNoRegistry is returned for a schema-bound topic when the pipeline
	// was built without a schema registry.
	ErrNoRegistry = errors.New("schema-bound topic requires a schema registry")

	// ErrNilTopic is returned when a nil topic is passed or targeted.
	ErrNilTopic = errors.New("nil topic")
)
