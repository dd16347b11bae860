package schema_registry

import (
	"context"
	"fmt"
)

// Serializer encodes records into envelopes.
type Serializer struct {
	client *Client
}

// Serialize encodes record under schema and prefixes the envelope header.
func (s *Serializer) Serialize(schema *Schema, record any) ([]byte, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: no schema", ErrInvalidSchema)
	}

	format, err := s.client.formatFor(schema.Type)
	if err != nil {
		return nil, fmt.Errorf("serializing with schema %d: %w", schema.ID, err)
	}

	payload, err := format.Encode(schema.Definition, record)
	if err != nil {
		return nil, fmt.Errorf("serializing with schema %d: %w", schema.ID, err)
	}
	return EncodeEnvelope(schema.ID, payload), nil
}

// Deserializer decodes envelopes, resolving schemas through the client.
type Deserializer struct {
	client *Client
}

// Deserialize returns the decoded record and the schema id from the header.
// The id is returned whenever the header could be read, even on failure.
func (d *Deserializer) Deserialize(ctx context.Context, data []byte) (any, uint32, error) {
	id, payload, err := DecodeEnvelope(data)
	if err != nil {
		return nil, 0, err
	}

	schema, err := d.client.GetSchemaByID(ctx, id)
	if err != nil {
		return nil, id, err
	}

	format, err := d.client.formatFor(schema.Type)
	if err != nil {
		return nil, id, fmt.Errorf("deserializing with schema %d: %w", id, err)
	}

	value, err := format.Decode(schema.Definition, payload)
	if err != nil {
		return nil, id, fmt.Errorf("deserializing with schema %d: %w", id, err)
	}
	return value, id, nil
}
