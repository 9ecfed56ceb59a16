package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Message payloads may be compressed independently of the container's chunk
// compression. The compression is detected from the payload's magic number.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Sprintf("codec: zstd decoder init: %v", err))
	}
}

// Decompress returns the decompressed payload if it starts with a known
// compression magic number, or the payload unchanged otherwise. An
// unrecognized prefix is not an error; most payloads are stored raw.
func Decompress(payload []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(payload, zstdMagic):
		out, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd decompress: %w", err)
		}
		return out, nil
	case bytes.HasPrefix(payload, lz4Magic):
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(payload)))
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
		}
		return out, nil
	default:
		return payload, nil
	}
}
