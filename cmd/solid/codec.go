package main

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// encodingZstd marks entries whose stored content is zstd-compressed.
const encodingZstd = "zstd"

// Shared encoder/decoder; both are safe for concurrent use and costly to
// construct.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

func compress(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2))
}

// decode undoes the encoding recorded in an entry's metadata.
func decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "":
		return data, nil
	case encodingZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown content encoding %q", encoding)
	}
}
