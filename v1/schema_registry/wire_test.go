package schema_registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		id      uint32
		payload []byte
	}{
		{"zero id", 0, []byte("x")},
		{"small id", 42, []byte{0x01, 0x02}},
		{"max id", ^uint32(0), []byte("payload")},
		{"empty payload", 7, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeEnvelope(tt.id, tt.payload)
			require.Len(t, data, HeaderSize+len(tt.payload))

			id, payload, err := DecodeEnvelope(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, len(tt.payload), len(payload))
			if len(tt.payload) > 0 {
				assert.Equal(t, tt.payload, payload)
			}
		})
	}
}

func TestEnvelopeHeaderLayout(t *testing.T) {
	data := EncodeEnvelope(42, []byte{0xAA})
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x2A, 0xAA}, data)
}

func TestDecodeEnvelopeRejectsMagicByte(t *testing.T) {
	for b := 1; b < 256; b++ {
		data := []byte{byte(b), 0, 0, 0, 1, 0xFF}
		_, _, err := DecodeEnvelope(data)
		require.ErrorIs(t, err, ErrMalformedWireFormat, "magic byte 0x%02x", b)
	}
}

func TestDecodeEnvelopeRejectsShortInput(t *testing.T) {
	for n := 0; n < HeaderSize; n++ {
		_, _, err := DecodeEnvelope(make([]byte, n))
		assert.True(t, IsMalformedWireFormatError(err), "length %d", n)
	}
}
