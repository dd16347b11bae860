package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Send publishes msg to the exchange with msg.Topic as routing key and waits
// for the publisher confirm. Failures wrap ErrPublishFailed.
func (rb *RabbitClient) Send(ctx context.Context, msg broker.OutboundMessage) error {
	start := time.Now()
	err := rb.publish(ctx, msg)
	rb.observeOperation("produce", msg.Topic, string(msg.Key), time.Since(start), err, int64(len(msg.Body)), map[string]interface{}{
		"exchange": rb.cfg.Channel.ExchangeName,
	})

	if err != nil {
		if IsClientClosedError(err) {
			return err
		}
		return fmt.Errorf("%w: topic %q: %w", ErrPublishFailed, msg.Topic, err)
	}
	return nil
}

func (rb *RabbitClient) publish(ctx context.Context, msg broker.OutboundMessage) error {
	ch, err := rb.publisherChannel()
	if err != nil {
		return err
	}

	err = ch.Publish(ctx, rb.cfg.Channel.ExchangeName, msg.Topic, amqp.Publishing{
		Headers:      toTable(msg.Key, msg.Headers),
		ContentType:  rb.cfg.Channel.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         msg.Body,
	})
	if err != nil {
		rb.dropPublisher(ch)
	}
	return err
}

// publisherChannel returns the shared publishing channel, opening it and
// declaring the exchange on first use.
func (rb *RabbitClient) publisherChannel() (amqpChannel, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed() {
		return nil, ErrClientClosed
	}
	if rb.publisher != nil {
		return rb.publisher, nil
	}

	ch, err := rb.openChannel()
	if err != nil {
		return nil, err
	}
	if err := rb.declareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	rb.publisher = ch
	return ch, nil
}

// dropPublisher discards ch so the next Send opens a fresh channel; a failed
// publish usually leaves the channel closed.
func (rb *RabbitClient) dropPublisher(ch amqpChannel) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.publisher == ch {
		_ = ch.Close()
		rb.publisher = nil
	}
}

func (rb *RabbitClient) declareExchange(ch amqpChannel) error {
	err := ch.ExchangeDeclare(
		rb.cfg.Channel.ExchangeName,
		rb.cfg.Channel.ExchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// declareQueue declares the subscription queue for topic and binds it to the
// exchange. It returns the queue name.
func (rb *RabbitClient) declareQueue(ch amqpChannel, topic string) (string, error) {
	if err := rb.declareExchange(ch); err != nil {
		return "", err
	}

	args := amqp.Table{}
	if rb.cfg.DeadLetter.ExchangeName != "" {
		err := ch.ExchangeDeclare(
			rb.cfg.DeadLetter.ExchangeName,
			"direct",
			true,  // Durable
			false, // AutoDelete
			false, // Internal
			false, // NoWait
			nil,   // Arguments
		)
		if err != nil {
			return "", fmt.Errorf("failed to declare dead letter exchange: %w", err)
		}
		args["x-dead-letter-exchange"] = rb.cfg.DeadLetter.ExchangeName
		if rb.cfg.DeadLetter.RoutingKey != "" {
			args["x-dead-letter-routing-key"] = rb.cfg.DeadLetter.RoutingKey
		}
	}

	// Without a group the queue belongs to this subscription alone.
	name, durable, exclusive := "", false, true
	if rb.cfg.Channel.GroupID != "" {
		name, durable, exclusive = rb.cfg.Channel.GroupID+"."+topic, true, false
	}

	queue, err := ch.QueueDeclare(
		name,
		durable,
		!durable, // AutoDelete
		exclusive,
		false, // NoWait
		args,
	)
	if err != nil {
		return "", fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(queue.Name, topic, rb.cfg.Channel.ExchangeName, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind queue: %w", err)
	}

	if rb.cfg.Channel.PrefetchCount > 0 {
		if err := ch.Qos(rb.cfg.Channel.PrefetchCount, 0, false); err != nil {
			return "", fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	return queue.Name, nil
}

// Subscribe consumes topic and calls handler for each delivery, one at a time,
// until ctx is cancelled or the client shuts down; both return nil.
//
// A handler error is logged and the delivery is rejected, requeued when
// Channel.RequeueOnError is set. With Channel.AutoAck the delivery is
// acknowledged after the handler succeeds; otherwise the handler acknowledges
// with the Acker. When the channel or connection drops the subscription is
// set up again after Channel.DelayToReconnect.
func (rb *RabbitClient) Subscribe(ctx context.Context, topic string, handler broker.Handler) error {
	rb.mu.RLock()
	if rb.closed() {
		rb.mu.RUnlock()
		return ErrClientClosed
	}
	rb.subscriptions.Add(1)
	rb.mu.RUnlock()
	defer rb.subscriptions.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-rb.shutdownSignal:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		err := rb.consume(ctx, topic, handler)
		if ctx.Err() != nil {
			return nil
		}
		if !IsRetryableError(err) {
			rb.logError(ctx, "failed to consume", err, map[string]interface{}{"topic": topic})
			return fmt.Errorf("%w: topic %q: %w", ErrConsumeFailed, topic, err)
		}

		rb.logWarn(ctx, "subscription interrupted, retrying", err, map[string]interface{}{"topic": topic})
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(rb.cfg.Channel.DelayToReconnect):
		}
	}
}

// consume runs one subscription on a fresh channel until ctx ends or the
// channel closes.
func (rb *RabbitClient) consume(ctx context.Context, topic string, handler broker.Handler) error {
	rb.mu.RLock()
	ch, err := rb.openChannel()
	rb.mu.RUnlock()
	if err != nil {
		return err
	}
	defer func() {
		if err := ch.Close(); err != nil {
			rb.logWarn(ctx, "failed to close rabbit channel", err, map[string]interface{}{"topic": topic})
		}
	}()

	queue, err := rb.declareQueue(ch, topic)
	if err != nil {
		return err
	}

	deliveries, err := ch.Consume(
		queue,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrChannelClosed
			}
			rb.handle(ctx, d, handler)
		}
	}
}

func (rb *RabbitClient) handle(ctx context.Context, d amqp.Delivery, handler broker.Handler) {
	s := &settlement{delivery: d}
	acker := broker.AckerFunc(func(ctx context.Context) error {
		start := time.Now()
		err := s.ack()
		rb.observeOperation("ack", d.RoutingKey, "", time.Since(start), err, 0, map[string]interface{}{
			"delivery_tag": d.DeliveryTag,
		})
		return err
	})

	start := time.Now()
	err := handler(ctx, fromDelivery(d), acker)
	rb.observeOperation("consume", d.RoutingKey, "", time.Since(start), err, int64(len(d.Body)), map[string]interface{}{
		"delivery_tag": d.DeliveryTag,
	})

	if err != nil {
		rb.logWarn(ctx, "message handler failed", err, map[string]interface{}{
			"topic":        d.RoutingKey,
			"delivery_tag": d.DeliveryTag,
			"requeue":      rb.cfg.Channel.RequeueOnError,
		})
		if nackErr := s.nack(rb.cfg.Channel.RequeueOnError); nackErr != nil {
			rb.logError(ctx, "failed to reject message", nackErr, map[string]interface{}{"topic": d.RoutingKey})
		}
		return
	}

	if rb.cfg.Channel.AutoAck {
		if err := acker.Ack(ctx); err != nil {
			rb.logError(ctx, "failed to ack message", err, map[string]interface{}{"topic": d.RoutingKey})
		}
	}
}

// settlement acknowledges or rejects a delivery exactly once; settling a
// delivery twice closes the channel.
type settlement struct {
	once     sync.Once
	delivery amqp.Delivery
	err      error
}

func (s *settlement) ack() error {
	s.once.Do(func() {
		if err := s.delivery.Ack(false); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrAckFailed, err)
		}
	})
	return s.err
}

func (s *settlement) nack(requeue bool) error {
	s.once.Do(func() {
		if err := s.delivery.Nack(false, requeue); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrAckFailed, err)
		}
	})
	return s.err
}
