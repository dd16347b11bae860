package schema_registry

import (
	"encoding/binary"
	"fmt"
)

const (
	// MagicByte opens every envelope.
	MagicByte byte = 0x00

	// HeaderSize is the magic byte plus the 4-byte schema id.
	HeaderSize = 5
)

// EncodeEnvelope frames payload as 0x00, the big-endian schema id, then the
// payload bytes unchanged.
func EncodeEnvelope(schemaID uint32, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = MagicByte
	binary.BigEndian.PutUint32(buf[1:HeaderSize], schemaID)
	copy(buf[HeaderSize:], payload)
	return buf
}

// DecodeEnvelope splits data into the schema id and the payload.
// The returned payload aliases data.
func DecodeEnvelope(data []byte) (uint32, []byte, error) {
	if len(data) < HeaderSize {
		return 0, nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrMalformedWireFormat, HeaderSize, len(data))
	}
	if data[0] != MagicByte {
		return 0, nil, fmt.Errorf("%w: unknown magic byte 0x%02x", ErrMalformedWireFormat, data[0])
	}
	return binary.BigEndian.Uint32(data[1:HeaderSize]), data[HeaderSize:], nil
}
