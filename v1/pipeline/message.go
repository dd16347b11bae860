package pipeline

import (
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/topicstream/v1/topic"
)

// MessageIDHeader is stamped on every produced message that does not carry
// one already.
const MessageIDHeader = "message-id"

// Body is the payload of an outbound message.
type Body struct {
	// Schema is the schema definition for schema-bound topics. When empty the
	// schema registered for the topic's subject and version is used.
	Schema string

	// Value is the record to send. For topics that are not schema-bound,
	// []byte and string are sent as is and anything else is JSON-encoded.
	Value any
}

// Message is a record addressed to one or more logical topics.
type Message struct {
	Key     []byte
	Body    Body
	Headers map[string]string

	// Topics are the targets for ProduceAll, produced to in order.
	Topics []*topic.Topic
}

// Result is the outcome of producing to one target topic.
type Result struct {
	// Topic is the logical topic name.
	Topic string
	Err   error
}

// Results holds one Result per target, in target order.
type Results []Result

// Err joins the failed results, or returns nil when every target succeeded.
func (r Results) Err() error {
	var errs []error
	for _, res := range r {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("topic %q: %w", res.Topic, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed returns the results that carry an error.
func (r Results) Failed() Results {
	var failed Results
	for _, res := range r {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}
