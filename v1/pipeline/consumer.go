package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/Aleph-Alpha/topicstream/v1/topic"
	"github.com/Aleph-Alpha/topicstream/v1/tracer"
	"golang.org/x/sync/errgroup"
)

// ErrorHook is called for every message whose decoding or handling failed.
type ErrorHook func(ctx context.Context, t *topic.Topic, msg *broker.Message, err error)

// Consumer subscribes logical topics and passes decoded messages to their
// handlers.
type Consumer struct {
	instrumentation

	broker   broker.Broker
	registry schema_registry.Registry
	env      environment.Environment
	onError  ErrorHook
}

// NewConsumer creates a Consumer for env. registry may be nil when no
// schema-bound topic is consumed.
func NewConsumer(b broker.Broker, registry schema_registry.Registry, env environment.Environment) *Consumer {
	return &Consumer{
		broker:   b,
		registry: registry,
		env:      env,
	}
}

// WithLogger sets the logger and returns the consumer for method chaining.
func (c *Consumer) WithLogger(logger Logger) *Consumer {
	c.logger = logger
	return c
}

// WithObserver sets the observer and returns the consumer for method chaining.
func (c *Consumer) WithObserver(observer observability.Observer) *Consumer {
	c.observer = observer
	return c
}

// WithTracer enables a span per message, continuing the trace carried in the
// message headers.
func (c *Consumer) WithTracer(t *tracer.Tracer) *Consumer {
	c.tracer = t
	return c
}

// WithErrorHook sets the hook notified of failed messages.
func (c *Consumer) WithErrorHook(hook ErrorHook) *Consumer {
	c.onError = hook
	return c
}

// Consume subscribes to t's physical topic and blocks until ctx is cancelled
// or the broker ends the subscription.
//
// A topic that is not consumable fails with topic.ErrUnsupportedOperation
// before any network call. For schema-bound topics each body is decoded from
// its wire envelope before the handler sees it. A decode or handler error
// fails that message only: it goes to the error hook, is logged and
// observed, and is returned to the broker without an acknowledgement. The
// subscription keeps running; Kafka does not redeliver the message.
func (c *Consumer) Consume(ctx context.Context, t *topic.Topic) error {
	name, err := c.prepare(t)
	if err != nil {
		return err
	}

	c.logInfo(ctx, "starting consumer", map[string]interface{}{
		"topic":         t.Name,
		"physical_name": name,
	})

	return c.broker.Subscribe(ctx, name, func(ctx context.Context, msg *broker.Message, acker broker.Acker) error {
		return c.handle(ctx, t, msg, acker)
	})
}

// ConsumeAll consumes every topic concurrently, one subscription each. All
// topics are checked before any subscription starts. It returns when all
// subscriptions have ended; the first subscription error cancels the rest.
func (c *Consumer) ConsumeAll(ctx context.Context, topics ...*topic.Topic) error {
	for _, t := range topics {
		if _, err := c.prepare(t); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range topics {
		g.Go(func() error {
			return c.Consume(ctx, t)
		})
	}
	return g.Wait()
}

// prepare checks t and resolves its physical name.
func (c *Consumer) prepare(t *topic.Topic) (string, error) {
	if t == nil {
		return "", ErrNilTopic
	}
	if err := t.CheckConsumable(); err != nil {
		return "", err
	}
	if t.Capabilities.SchemaBound && c.registry == nil {
		return "", ErrNoRegistry
	}
	return t.PhysicalName(c.env)
}

func (c *Consumer) handle(ctx context.Context, t *topic.Topic, msg *broker.Message, acker broker.Acker) error {
	if c.tracer != nil {
		ctx = c.tracer.SetCarrierOnContext(ctx, msg.Headers)
	}
	ctx, span := c.startSpan(ctx, "consume "+msg.Topic, map[string]interface{}{
		"messaging.destination": msg.Topic,
		"topic":                 t.Name,
		"partition":             msg.Partition,
		"offset":                msg.Offset,
	})
	defer span.End()

	start := time.Now()
	d := &topic.Delivery{Message: *msg, Value: msg.Body}

	err := c.decode(ctx, t, d)
	if err == nil {
		err = t.Handler(ctx, d, acker)
	}

	c.recordError(span, err)
	c.observeOperation("consume", msg.Topic, t.Name, time.Since(start), err, int64(len(msg.Body)), map[string]interface{}{
		"partition": msg.Partition,
		"offset":    msg.Offset,
		"schema_id": d.SchemaID,
	})

	if err != nil {
		c.logError(ctx, "failed to handle message", err, map[string]interface{}{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if c.onError != nil {
			c.onError(ctx, t, msg, err)
		}
	}
	return err
}

func (c *Consumer) decode(ctx context.Context, t *topic.Topic, d *topic.Delivery) error {
	if !t.Capabilities.SchemaBound {
		return nil
	}

	value, schemaID, err := c.registry.Deserializer().Deserialize(ctx, d.Body)
	d.SchemaID = schemaID
	if err != nil {
		return fmt.Errorf("decoding message at offset %d of %q: %w", d.Offset, d.Topic, err)
	}
	d.Value = value
	return nil
}
