package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/segmentio/kafka-go"
)

// Send writes msg to msg.Topic. Unless Config.Async is set it blocks until
// the broker acknowledges according to RequiredAcks. Failures wrap
// ErrSendFailed.
func (k *KafkaClient) Send(ctx context.Context, msg broker.OutboundMessage) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.closed() {
		return ErrClientClosed
	}

	start := time.Now()
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Body,
		Headers: toKafkaHeaders(msg.Headers),
	})
	k.observeOperation("produce", msg.Topic, string(msg.Key), time.Since(start), err, int64(len(msg.Body)), nil)

	if err != nil {
		return fmt.Errorf("%w: topic %q: %w", ErrSendFailed, msg.Topic, err)
	}
	return nil
}

// Subscribe reads topic and calls handler for each message, one at a time,
// until ctx is cancelled or the client shuts down; both return nil.
//
// A handler error is logged and the loop moves on to the next message; the
// failed message is not redelivered. Commits are positional, so committing
// any later message of the partition also covers it. With EnableAutoCommit
// the message is committed after the handler succeeds; otherwise the
// handler commits with the Acker.
func (k *KafkaClient) Subscribe(ctx context.Context, topic string, handler broker.Handler) error {
	k.mu.RLock()
	if k.closed() {
		k.mu.RUnlock()
		return ErrClientClosed
	}
	k.subscriptions.Add(1)
	k.mu.RUnlock()
	defer k.subscriptions.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-k.shutdownSignal:
			cancel()
		case <-ctx.Done():
		}
	}()

	reader := k.newReader(topic)
	defer func() {
		if err := reader.Close(); err != nil {
			k.logWarn(ctx, "failed to close Kafka reader", err, map[string]interface{}{"topic": topic})
		}
	}()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			k.logError(ctx, "failed to fetch message", err, map[string]interface{}{"topic": topic})
			return fmt.Errorf("%w: topic %q: %w", ErrFetchFailed, topic, err)
		}

		k.handle(ctx, reader, m, handler)
	}
}

func (k *KafkaClient) handle(ctx context.Context, reader messageReader, m kafka.Message, handler broker.Handler) {
	acker := k.newAcker(reader, m)

	start := time.Now()
	err := handler(ctx, fromKafkaMessage(m), acker)
	k.observeOperation("consume", m.Topic, strconv.Itoa(m.Partition), time.Since(start), err, int64(len(m.Value)), map[string]interface{}{
		"offset": m.Offset,
	})

	if err != nil {
		k.logWarn(ctx, "message handler failed", err, map[string]interface{}{
			"topic":     m.Topic,
			"partition": m.Partition,
			"offset":    m.Offset,
		})
		return
	}

	if k.cfg.EnableAutoCommit {
		if err := acker.Ack(ctx); err != nil {
			k.logError(ctx, "failed to commit message", err, map[string]interface{}{
				"topic":  m.Topic,
				"offset": m.Offset,
			})
		}
	}
}

// newAcker returns an Acker that commits m once. Without a consumer group
// there is nothing to commit.
func (k *KafkaClient) newAcker(reader messageReader, m kafka.Message) broker.Acker {
	if k.cfg.GroupID == "" {
		return broker.NoopAcker
	}

	var once sync.Once
	var commitErr error
	return broker.AckerFunc(func(ctx context.Context) error {
		once.Do(func() {
			start := time.Now()
			err := reader.CommitMessages(ctx, m)
			k.observeOperation("commit", m.Topic, strconv.Itoa(m.Partition), time.Since(start), err, 0, map[string]interface{}{
				"offset": m.Offset,
			})
			if err != nil {
				commitErr = fmt.Errorf("%w: %w", ErrCommitFailed, err)
			}
		})
		return commitErr
	})
}
