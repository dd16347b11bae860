// Package pipeline produces to and consumes from logical topics.
//
// A Producer resolves the topic's physical name for the process
// environment, encodes the body and sends it through a broker.Broker. For
// schema-bound topics the body's schema is registered under the topic's
// subject on every call, which the registry client answers from cache after
// the first time, and the value is wrapped in the wire envelope
// (0x00, big-endian schema id, payload). Other topics send []byte and string
// values unchanged and JSON-encode anything else.
//
//	producer := pipeline.NewProducer(kafkaClient, registry, environment.Production)
//
//	results := producer.ProduceAll(ctx, pipeline.Message{
//		Key:    []byte("o-1"),
//		Body:   pipeline.Body{Schema: orderSchema, Value: map[string]any{"total": 9.99}},
//		Topics: []*topic.Topic{orders, audit},
//	})
//	if err := results.Err(); err != nil {
//		return err
//	}
//
// A Consumer subscribes a topic's physical name and calls the topic's
// handler once per message, decoding schema-bound bodies first. A message
// that fails to decode or handle is reported to the error hook and not
// acknowledged; the subscription continues with the next message. Kafka
// does not redeliver it, so the hook is where such messages are kept.
//
//	consumer := pipeline.NewConsumer(kafkaClient, registry, environment.Production).
//		WithErrorHook(func(ctx context.Context, t *topic.Topic, msg *broker.Message, err error) {
//			deadLetters.Add(t.Name, msg, err)
//		})
//
//	// Blocks until ctx is cancelled.
//	err := consumer.Consume(ctx, orders)
//
// Capabilities are checked before any network call: producing to a topic
// that is not producible, or consuming one that is not consumable, fails
// with topic.ErrUnsupportedOperation.
//
// With a tracer set, the producer writes the trace context into the message
// headers and the consumer continues it, so handler spans join the
// producer's trace. Every message also carries a "message-id" header.
package pipeline
