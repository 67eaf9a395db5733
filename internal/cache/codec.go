package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// Compression identifies how a payload body is encoded. It is stored as the
// first byte of every payload so entries written with different settings can
// still be read.
type Compression uint8

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 1
)

// ErrCorruptPayload is returned for a payload that cannot be decoded
var ErrCorruptPayload = errors.New("cache: corrupt payload")

// Codec turns values into cache payloads: JSON, optionally snappy-compressed.
type Codec struct {
	compression Compression
}

// NewCodec creates a codec. compress selects snappy.
func NewCodec(compress bool) Codec {
	if compress {
		return Codec{compression: CompressionSnappy}
	}
	return Codec{compression: CompressionNone}
}

// Encode marshals v
func (c Codec) Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	if c.compression == CompressionSnappy {
		body = snappy.Encode(nil, body)
	}

	payload := make([]byte, 0, len(body)+1)
	payload = append(payload, byte(c.compression))
	return append(payload, body...), nil
}

// Decode unmarshals payload into v regardless of how it was compressed
func (c Codec) Decode(payload []byte, v any) error {
	if len(payload) == 0 {
		return ErrCorruptPayload
	}

	body := payload[1:]
	switch Compression(payload[0]) {
	case CompressionNone:
	case CompressionSnappy:
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return fmt.Errorf("%w: snappy: %v", ErrCorruptPayload, err)
		}
		body = decoded
	default:
		return fmt.Errorf("%w: unknown compression %d", ErrCorruptPayload, payload[0])
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return nil
}
