package broker

import (
	"context"
	"time"
)

//go:generate mockgen -source=broker.go -destination=mock_broker.go -package=broker

// Message is a record received from a broker subscription.
type Message struct {
	// Topic is the physical topic the message was read from.
	Topic string

	// Partition is the partition index; zero for brokers without partitions.
	Partition int

	// Offset is the position within the partition, or the delivery tag.
	Offset int64

	Key     []byte
	Body    []byte
	Headers map[string]string

	// Timestamp is the broker-assigned time, when the broker provides one.
	Timestamp time.Time
}

// OutboundMessage is a record to be written to a physical topic.
type OutboundMessage struct {
	Topic   string
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Acker acknowledges a single received message.
type Acker interface {
	Ack(ctx context.Context) error
}

// AckerFunc adapts a function to the Acker interface.
type AckerFunc func(ctx context.Context) error

// Ack calls f(ctx).
func (f AckerFunc) Ack(ctx context.Context) error {
	return f(ctx)
}

// NoopAcker acknowledges nothing. Brokers use it when acknowledgement is
// automatic.
var NoopAcker Acker = AckerFunc(func(context.Context) error { return nil })

// Handler processes one received message. A non-nil error means the handler
// did not acknowledge the message and the subscription keeps running. Whether
// the message comes back depends on the broker: RabbitMQ rejects it (and
// requeues it when configured), Kafka moves past it.
type Handler func(ctx context.Context, msg *Message, acker Acker) error

// Broker is the transport contract the pipelines are written against.
type Broker interface {
	// Send writes msg synchronously and returns the broker's error verbatim.
	Send(ctx context.Context, msg OutboundMessage) error

	// Subscribe reads from topic and calls handler for each message until ctx
	// is cancelled. It returns nil on cancellation.
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// CloneHeaders returns a copy of h that is safe to modify.
func CloneHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
