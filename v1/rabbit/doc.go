// Package rabbit provides the RabbitMQ implementation of broker.Broker on top
// of amqp091-go.
//
// # Architecture
//
// Every physical topic is a routing key on one durable exchange (topic type,
// "topicstream" by default). Send publishes with the topic as routing key on
// a shared channel in confirm mode and returns once the broker confirms.
// Each Subscribe call opens its own channel and consumes a queue bound to the
// topic:
//
//   - With Channel.GroupID set the queue is the durable "<group>.<topic>",
//     so subscribers in the same group share the deliveries.
//   - Without it the queue is exclusive and server-named, and each
//     subscription sees every message.
//
// AMQP messages have no key, so the key travels in the "x-message-key"
// header and comes back as broker.Message.Key. The delivery tag fills
// broker.Message.Offset.
//
// # Direct Usage (Without FX)
//
//	client, err := rabbit.NewClient(rabbit.Config{
//		Connection: rabbit.Connection{
//			Host:     "localhost",
//			Port:     5672,
//			User:     "guest",
//			Password: "guest",
//		},
//		Channel: rabbit.Channel{
//			GroupID: "orders-service",
//			AutoAck: true,
//		},
//	})
//	if err != nil {
//		return err
//	}
//	go client.RetryConnection()
//	defer client.GracefulShutdown()
//
//	err = client.Send(ctx, broker.OutboundMessage{
//		Topic: "production.orders",
//		Key:   []byte("o-1"),
//		Body:  body,
//	})
//
//	// Blocks until ctx is cancelled.
//	err = client.Subscribe(ctx, "production.orders", func(ctx context.Context, msg *broker.Message, _ broker.Acker) error {
//		return process(msg)
//	})
//
// # Acknowledgement
//
// A handler error rejects the delivery. It is requeued when
// Channel.RequeueOnError is set and otherwise dropped, or routed to
// DeadLetter.ExchangeName when one is configured. With Channel.AutoAck a
// delivery is acknowledged after its handler returns nil; without it the
// handler calls Acker.Ack. A delivery is settled at most once.
//
// # Reconnection
//
// RetryConnection re-dials a dropped connection every
// Channel.DelayToReconnect until it succeeds; the fx module runs it for the
// lifetime of the application. Running subscriptions notice their channel
// closing and set themselves up again on the new connection.
//
// # Configuration
//
//	RABBITMQ_HOST=rabbitmq
//	RABBITMQ_PORT=5672
//	RABBITMQ_GROUP_ID=orders-service
//	RABBITMQ_PREFETCH_COUNT=10
//	RABBITMQ_DEAD_LETTER_EXCHANGE=topicstream.dlx
//
// # Observability
//
// With an observer set, produce, consume and ack operations are reported
// with component "rabbit" and the physical topic as resource.
package rabbit
