// Package kafka provides the Kafka implementation of broker.Broker on top of
// segmentio/kafka-go.
//
// One writer is shared by all sends; the destination topic travels with each
// message and keys are partitioned with a hash balancer, so records with the
// same key stay in order. Every Subscribe call opens its own reader and
// handles messages one at a time.
//
// Basic Usage:
//
//	client, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		GroupID: "orders-service",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//
//	err = client.Send(ctx, broker.OutboundMessage{
//		Topic: "production.orders",
//		Key:   []byte("o-1"),
//		Body:  body,
//	})
//
//	// Blocks until ctx is cancelled.
//	err = client.Subscribe(ctx, "production.orders", func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
//		if err := process(msg); err != nil {
//			return err // logged, not redelivered
//		}
//		return acker.Ack(ctx)
//	})
//
// Offsets:
//
// With a GroupID, Ack commits the message's offset. With EnableAutoCommit
// the client commits after each successful handler call and flushes commits
// every CommitInterval. Without a GroupID the reader follows one partition
// and Ack does nothing.
//
// A message whose handler fails is skipped, not retried. Its offset is
// committed along with the next acknowledged message of the same partition,
// so record failures through the handler itself or the pipeline's error
// hook.
//
// Configuration:
//
//	KAFKA_BROKERS=localhost:9092,localhost:9093
//	KAFKA_GROUP_ID=orders-service
//	KAFKA_COMPRESSION_CODEC=zstd
//	KAFKA_SASL_ENABLED=true
//	KAFKA_SASL_MECHANISM=SCRAM-SHA-512
//
// Thread Safety:
//
// Send and Subscribe are safe for concurrent use. GracefulShutdown cancels
// running subscriptions and waits for them before closing the writer.
package kafka
