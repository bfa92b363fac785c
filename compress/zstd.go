package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ZstdDecompressor reads Zstandard streams.
type ZstdDecompressor struct{}

var _ Decompressor = ZstdDecompressor{}

// NewZstdDecompressor creates a Zstandard decompressor.
func NewZstdDecompressor() ZstdDecompressor {
	return ZstdDecompressor{}
}

// NewReader returns a reader of the decompressed stream.
//
// Tables are read by a single goroutine, so the decoder runs single-threaded.
func (ZstdDecompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}

	return decoder.IOReadCloser(), nil
}
