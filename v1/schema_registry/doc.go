// Package schema_registry provides integration with Confluent Schema Registry
// and the envelope format used on the wire.
//
// Every schema-bound message body is framed as:
//
//	byte 0      0x00 (magic byte)
//	bytes 1..4  schema id, uint32 big-endian
//	bytes 5..   payload encoded under that schema
//
// Core Features:
//   - HTTP client for the registry REST API (register, lookup by id,
//     lookup by subject/version, compatibility)
//   - Capacity-bounded in-process caches; schemas are immutable per id so
//     nothing expires by time
//   - At most one in-flight lookup per schema id
//   - Optional shared Redis store between the in-process cache and the registry
//   - Avro (goavro) and JSON payload formats
//
// Basic Usage:
//
//	registry, err := schema_registry.NewClient(schema_registry.Config{
//	    URL:     "http://localhost:8081",
//	    Timeout: 10 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//
//	id, err := registry.Register(ctx, "orders-value", orderSchema, 1)
//	if err != nil {
//	    return err
//	}
//
//	data, err := registry.Serializer().Serialize(
//	    &schema_registry.Schema{ID: id, Definition: orderSchema},
//	    map[string]any{"total": 9.99},
//	)
//
//	value, schemaID, err := registry.Deserializer().Deserialize(ctx, data)
//
// Error handling:
//
// Failures map onto a small set of sentinels: ErrSchemaNotFound (404 and
// registry codes 40401-40403), ErrRegistryUnavailable (network errors, 5xx,
// unreadable responses), ErrInvalidSchema (422), ErrIncompatibleSchema (409)
// and ErrMalformedWireFormat for envelopes and payloads that cannot be
// decoded. Non-2xx responses are returned as *RegistryError, which unwraps to
// the matching sentinel. The client never retries.
//
// Using with FX:
//
//	app := fx.New(
//	    logger.FXModule,
//	    redis.FXModule, // optional shared store
//	    schema_registry.FXModule,
//	    fx.Provide(schema_registry.LoadConfig),
//	)
package schema_registry
