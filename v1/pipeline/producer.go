package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
	"github.com/Aleph-Alpha/topicstream/v1/observability"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/Aleph-Alpha/topicstream/v1/topic"
	"github.com/Aleph-Alpha/topicstream/v1/tracer"
	"github.com/google/uuid"
)

// Producer sends messages to logical topics.
type Producer struct {
	instrumentation

	broker   broker.Broker
	registry schema_registry.Registry
	env      environment.Environment
}

// NewProducer creates a Producer for env. registry may be nil when no
// schema-bound topic is produced to.
func NewProducer(b broker.Broker, registry schema_registry.Registry, env environment.Environment) *Producer {
	return &Producer{
		broker:   b,
		registry: registry,
		env:      env,
	}
}

// WithLogger sets the logger and returns the producer for method chaining.
func (p *Producer) WithLogger(logger Logger) *Producer {
	p.logger = logger
	return p
}

// WithObserver sets the observer and returns the producer for method chaining.
func (p *Producer) WithObserver(observer observability.Observer) *Producer {
	p.observer = observer
	return p
}

// WithTracer enables a span per produce and trace context propagation
// through message headers.
func (p *Producer) WithTracer(t *tracer.Tracer) *Producer {
	p.tracer = t
	return p
}

// Produce sends msg to t and blocks until the broker accepts or rejects it.
//
// A topic that is not producible fails with topic.ErrUnsupportedOperation
// before any network call. For schema-bound topics the schema in msg.Body is
// registered under the topic's subject (answered from cache after the first
// call) and the value is serialized into a wire envelope; without a schema in
// the body, the subject's schema for the environment's version is used.
// Broker errors are returned as they are.
func (p *Producer) Produce(ctx context.Context, t *topic.Topic, msg Message) error {
	if t == nil {
		return ErrNilTopic
	}
	if err := t.CheckProducible(); err != nil {
		return err
	}

	name, err := t.PhysicalName(p.env)
	if err != nil {
		return err
	}

	ctx, span := p.startSpan(ctx, "produce "+name, map[string]interface{}{
		"messaging.destination": name,
		"topic":                 t.Name,
	})
	defer span.End()

	start := time.Now()
	body, schemaID, err := p.encode(ctx, t, msg.Body)
	if err != nil {
		p.recordError(span, err)
		p.observeOperation("produce", name, t.Name, time.Since(start), err, 0, nil)
		return err
	}

	headers := broker.CloneHeaders(msg.Headers)
	if headers[MessageIDHeader] == "" {
		headers[MessageIDHeader] = uuid.NewString()
	}
	if p.tracer != nil {
		for k, v := range p.tracer.GetCarrier(ctx) {
			headers[k] = v
		}
	}

	err = p.broker.Send(ctx, broker.OutboundMessage{
		Topic:   name,
		Key:     msg.Key,
		Body:    body,
		Headers: headers,
	})
	p.recordError(span, err)
	p.observeOperation("produce", name, t.Name, time.Since(start), err, int64(len(body)), map[string]interface{}{
		"schema_id":  schemaID,
		"message_id": headers[MessageIDHeader],
	})
	return err
}

// ProduceAll produces msg to each of msg.Topics in order. A failure does not
// stop the remaining targets; the outcome of every target is returned.
func (p *Producer) ProduceAll(ctx context.Context, msg Message) Results {
	results := make(Results, 0, len(msg.Topics))
	for _, t := range msg.Topics {
		res := Result{Err: p.Produce(ctx, t, msg)}
		if t != nil {
			res.Topic = t.Name
		}
		if res.Err != nil {
			p.logWarn(ctx, "failed to produce message", res.Err, map[string]interface{}{
				"topic": res.Topic,
			})
		}
		results = append(results, res)
	}
	return results
}

// encode builds the wire body and returns the schema id used, zero for
// topics that are not schema-bound.
func (p *Producer) encode(ctx context.Context, t *topic.Topic, body Body) ([]byte, uint32, error) {
	if !t.Capabilities.SchemaBound {
		raw, err := rawBody(body.Value)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding body for topic %q: %w", t.Name, err)
		}
		return raw, 0, nil
	}

	if p.registry == nil {
		return nil, 0, ErrNoRegistry
	}
	if t.Binding == nil {
		return nil, 0, fmt.Errorf("%w: %q is schema-bound without a subject", topic.ErrInvalidTopic, t.Name)
	}

	schema, err := p.schemaFor(ctx, t, body.Schema)
	if err != nil {
		return nil, 0, err
	}

	data, err := p.registry.Serializer().Serialize(schema, body.Value)
	if err != nil {
		return nil, schema.ID, err
	}
	return data, schema.ID, nil
}

func (p *Producer) schemaFor(ctx context.Context, t *topic.Topic, definition string) (*schema_registry.Schema, error) {
	version := t.SchemaVersion(p.env)
	if definition == "" {
		return p.registry.GetSchemaBySubjectVersion(ctx, t.Binding.Subject, version)
	}

	id, err := p.registry.Register(ctx, t.Binding.Subject, definition, version)
	if err != nil {
		return nil, err
	}
	return p.registry.GetSchemaByID(ctx, id)
}

// rawBody converts a value for a topic without a schema.
func rawBody(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
