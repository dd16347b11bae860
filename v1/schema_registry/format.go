package schema_registry

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/linkedin/goavro/v2"
)

// SchemaType is the schema language reported by the registry.
type SchemaType string

const (
	SchemaTypeAvro SchemaType = "AVRO"
	SchemaTypeJSON SchemaType = "JSON"
)

// Format transcodes records to and from the payload that follows the envelope
// header.
type Format interface {
	Type() SchemaType
	Encode(definition string, record any) ([]byte, error)
	Decode(definition string, payload []byte) (any, error)
}

// FormatFor returns the Format for t. An empty type means Avro, as in the
// registry API.
func FormatFor(t SchemaType, cacheSize int) (Format, error) {
	switch SchemaType(strings.ToUpper(string(t))) {
	case "", SchemaTypeAvro:
		return NewAvroFormat(cacheSize), nil
	case SchemaTypeJSON:
		return JSONFormat{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSchemaType, t)
	}
}

// AvroFormat encodes Avro binary with goavro. Parsed codecs are cached by
// definition.
type AvroFormat struct {
	once   sync.Once
	size   int
	codecs *lru.Cache[string, *goavro.Codec]
}

// NewAvroFormat returns an AvroFormat caching up to cacheSize codecs.
func NewAvroFormat(cacheSize int) *AvroFormat {
	return &AvroFormat{size: cacheSize}
}

// Type implements Format.
func (f *AvroFormat) Type() SchemaType { return SchemaTypeAvro }

func (f *AvroFormat) codec(definition string) (*goavro.Codec, error) {
	f.once.Do(func() {
		size := f.size
		if size <= 0 {
			size = DefaultCacheSize
		}
		// lru.New only fails for a non-positive size.
		f.codecs, _ = lru.New[string, *goavro.Codec](size)
	})

	if codec, ok := f.codecs.Get(definition); ok {
		return codec, nil
	}

	codec, err := goavro.NewCodec(definition)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	f.codecs.Add(definition, codec)
	return codec, nil
}

// Encode writes record as Avro binary. Maps are encoded directly; any other
// value goes through its JSON form first, so plain structs work for records
// without unions.
func (f *AvroFormat) Encode(definition string, record any) ([]byte, error) {
	codec, err := f.codec(definition)
	if err != nil {
		return nil, err
	}

	native := record
	if _, ok := record.(map[string]any); !ok {
		textual, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encoding record as json: %w", err)
		}
		native, _, err = codec.NativeFromTextual(textual)
		if err != nil {
			return nil, fmt.Errorf("record does not match schema: %w", err)
		}
	}

	out, err := codec.BinaryFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("record does not match schema: %w", err)
	}
	return out, nil
}

// Decode reads a single Avro datum. Trailing bytes are rejected.
func (f *AvroFormat) Decode(definition string, payload []byte) (any, error) {
	codec, err := f.codec(definition)
	if err != nil {
		return nil, err
	}

	native, rest, err := codec.NativeFromBinary(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedWireFormat, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedWireFormat, len(rest))
	}
	return native, nil
}

// JSONFormat carries records as plain JSON. The definition is not used for
// validation.
type JSONFormat struct{}

// Type implements Format.
func (JSONFormat) Type() SchemaType { return SchemaTypeJSON }

// Encode implements Format.
func (JSONFormat) Encode(_ string, record any) ([]byte, error) {
	out, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record as json: %w", err)
	}
	return out, nil
}

// Decode implements Format.
func (JSONFormat) Decode(_ string, payload []byte) (any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedWireFormat, err)
	}
	return v, nil
}
