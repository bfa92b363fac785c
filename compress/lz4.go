package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Decompressor reads LZ4 frame streams.
type LZ4Decompressor struct{}

var _ Decompressor = LZ4Decompressor{}

// NewLZ4Decompressor creates an LZ4 decompressor.
func NewLZ4Decompressor() LZ4Decompressor {
	return LZ4Decompressor{}
}

// NewReader returns a reader of the decompressed stream.
func (LZ4Decompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
