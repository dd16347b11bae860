package pipeline_test

import (
	"context"
	"log"

	"github.com/Aleph-Alpha/topicstream/v1/broker"
	"github.com/Aleph-Alpha/topicstream/v1/environment"
	"github.com/Aleph-Alpha/topicstream/v1/kafka"
	"github.com/Aleph-Alpha/topicstream/v1/pipeline"
	"github.com/Aleph-Alpha/topicstream/v1/schema_registry"
	"github.com/Aleph-Alpha/topicstream/v1/topic"
)

const orderSchema = `{"type":"record","name":"Order","fields":[{"name":"total","type":"double"}]}`

func Example() {
	ctx := context.Background()

	client, err := kafka.NewClient(kafka.Config{
		Brokers: []string{"localhost:9092"},
		GroupID: "orders-service",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.GracefulShutdown()

	registry, err := schema_registry.NewClient(schema_registry.Config{URL: "http://localhost:8081"})
	if err != nil {
		log.Fatal(err)
	}

	orders := &topic.Topic{
		Name:         "orders",
		Names:        topic.Prefixed("orders"),
		Capabilities: topic.Capabilities{Producible: true, Consumable: true, SchemaBound: true},
		Binding:      &topic.SchemaBinding{Subject: "orders-value", Version: topic.FixedVersion(1)},
		Handler: func(ctx context.Context, d *topic.Delivery, acker broker.Acker) error {
			log.Printf("order %s: %v", d.Key, d.Value)
			return acker.Ack(ctx)
		},
	}

	producer := pipeline.NewProducer(client, registry, environment.Production)
	results := producer.ProduceAll(ctx, pipeline.Message{
		Key:    []byte("o-1"),
		Body:   pipeline.Body{Schema: orderSchema, Value: map[string]any{"total": 9.99}},
		Topics: []*topic.Topic{orders},
	})
	if err := results.Err(); err != nil {
		log.Printf("produce failed: %v", err)
	}

	consumer := pipeline.NewConsumer(client, registry, environment.Production)
	if err := consumer.Consume(ctx, orders); err != nil {
		log.Printf("consume stopped: %v", err)
	}
}
