package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Codec defines how cache values are serialized and deserialized.
type Codec interface {
	// Encode renders the value to bytes.
	Encode(value any) ([]byte, error)
	// Decode parses bytes into the value, which must be a pointer.
	Decode(data []byte, value any) error
}

// LZ4JSONCodec encodes values as lz4-frame-compressed JSON. Snapshot maps
// compress well and the cache can hold one entry per sampled commit.
type LZ4JSONCodec struct{}

// NewLZ4JSONCodec creates the default cache codec.
func NewLZ4JSONCodec() *LZ4JSONCodec {
	return &LZ4JSONCodec{}
}

// Encode implements Codec.Encode.
func (c *LZ4JSONCodec) Encode(value any) ([]byte, error) {
	var buf bytes.Buffer

	writer := lz4.NewWriter(&buf)

	encodeErr := json.NewEncoder(writer).Encode(value)
	if encodeErr != nil {
		return nil, fmt.Errorf("json encode: %w", encodeErr)
	}

	err := writer.Close()
	if err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode implements Codec.Decode.
func (c *LZ4JSONCodec) Decode(data []byte, value any) error {
	reader := lz4.NewReader(bytes.NewReader(data))

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("lz4 decompress: %w", err)
	}

	err = json.Unmarshal(decompressed, value)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}
