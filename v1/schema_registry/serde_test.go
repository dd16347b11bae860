package schema_registry

import (
	"context"
	"testing"

	"github.com/Aleph-Alpha/topicstream/v1/schema_registry/registrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvroSerializeDeserialize(t *testing.T) {
	srv := registrytest.NewServer(42)
	defer srv.Close()
	ctx := context.Background()

	producer := newTestClient(t, srv)
	id, err := producer.Register(ctx, "orders-value", orderSchema, 1)
	require.NoError(t, err)

	data, err := producer.Serializer().Serialize(
		&Schema{ID: id, Definition: orderSchema, Type: SchemaTypeAvro},
		map[string]any{"total": 9.99},
	)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2A}, data[:HeaderSize])
	assert.Len(t, data, HeaderSize+8)

	// A separate client fetches the schema once and serves later decodes from cache.
	consumer := newTestClient(t, srv)
	for i := 0; i < 2; i++ {
		value, schemaID, err := consumer.Deserializer().Deserialize(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, uint32(42), schemaID)
		assert.Equal(t, map[string]interface{}{"total": 9.99}, value)
	}
	assert.Equal(t, 1, srv.Calls("GET /schemas/ids/42"))
}

func TestAvroEncodesStructsThroughJSON(t *testing.T) {
	format := NewAvroFormat(0)

	fromMap, err := format.Encode(orderSchema, map[string]any{"total": 9.99})
	require.NoError(t, err)

	fromStruct, err := format.Encode(orderSchema, struct {
		Total float64 `json:"total"`
	}{Total: 9.99})
	require.NoError(t, err)

	assert.Equal(t, fromMap, fromStruct)
}

func TestAvroEncodeRejectsMismatchedRecord(t *testing.T) {
	_, err := NewAvroFormat(0).Encode(orderSchema, map[string]any{"total": "nine"})
	assert.Error(t, err)

	_, err = NewAvroFormat(0).Encode(`{"type":`, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestDeserializeCorruptPayload(t *testing.T) {
	srv := registrytest.NewServer(42)
	defer srv.Close()
	srv.Add("orders-value", orderSchema)

	client := newTestClient(t, srv)

	_, id, err := client.Deserializer().Deserialize(context.Background(), EncodeEnvelope(42, []byte{0x01, 0x02}))
	assert.Equal(t, uint32(42), id)
	assert.ErrorIs(t, err, ErrMalformedWireFormat)

	_, _, err = client.Deserializer().Deserialize(context.Background(), []byte{0x01, 0, 0, 0, 42, 0})
	assert.ErrorIs(t, err, ErrMalformedWireFormat)
	assert.Equal(t, 1, srv.Calls("GET /schemas/ids/42"))
}

func TestDeserializeUnknownSchemaID(t *testing.T) {
	srv := registrytest.NewServer(42)
	defer srv.Close()

	_, id, err := newTestClient(t, srv).Deserializer().Deserialize(context.Background(), EncodeEnvelope(999, []byte{0}))
	assert.Equal(t, uint32(999), id)
	assert.ErrorIs(t, err, ErrSchemaNotFound)
}

func TestJSONFormatRoundTrip(t *testing.T) {
	srv := registrytest.NewServer(7)
	defer srv.Close()
	ctx := context.Background()

	client, err := NewClient(Config{URL: srv.URL, SchemaType: SchemaTypeJSON})
	require.NoError(t, err)

	definition := `{"type":"object","properties":{"total":{"type":"number"}}}`
	id, err := client.Register(ctx, "orders-value", definition, 0)
	require.NoError(t, err)

	data, err := client.Serializer().Serialize(&Schema{ID: id, Definition: definition, Type: SchemaTypeJSON}, map[string]any{"total": 9.99})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":9.99}`, string(data[HeaderSize:]))

	fresh, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)
	value, _, err := fresh.Deserializer().Deserialize(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"total": 9.99}, value)
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("", 0)
	require.NoError(t, err)
	assert.Equal(t, SchemaTypeAvro, f.Type())

	f, err = FormatFor("json", 0)
	require.NoError(t, err)
	assert.Equal(t, SchemaTypeJSON, f.Type())

	_, err = FormatFor("PROTOBUF", 0)
	assert.ErrorIs(t, err, ErrUnsupportedSchemaType)
}

func TestDeserializeUnsupportedSchemaType(t *testing.T) {
	srv := registrytest.NewServer(42)
	defer srv.Close()
	id := srv.AddWithType("orders-value", `syntax = "proto3"; message Order { double total = 1; }`, "PROTOBUF")

	client := newTestClient(t, srv)

	_, got, err := client.Deserializer().Deserialize(context.Background(), EncodeEnvelope(id, []byte{0x09}))
	assert.Equal(t, id, got)
	assert.ErrorIs(t, err, ErrUnsupportedSchemaType)
	assert.NotErrorIs(t, err, ErrMalformedWireFormat)

	_, err = client.Serializer().Serialize(&Schema{ID: id, Type: "PROTOBUF"}, map[string]any{"total": 1.0})
	assert.ErrorIs(t, err, ErrUnsupportedSchemaType)
}

func TestSerializeTreatsEmptyTypeAsAvro(t *testing.T) {
	srv := registrytest.NewServer(42)
	defer srv.Close()

	data, err := newTestClient(t, srv).Serializer().Serialize(&Schema{ID: 42, Definition: orderSchema}, map[string]any{"total": 9.99})
	require.NoError(t, err)

	id, _, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)
}
