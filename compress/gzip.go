package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// GzipDecompressor reads gzip streams, including multi-member files produced
// by concatenating gzip outputs.
type GzipDecompressor struct{}

var _ Decompressor = GzipDecompressor{}

// NewGzipDecompressor creates a gzip decompressor.
func NewGzipDecompressor() GzipDecompressor {
	return GzipDecompressor{}
}

// NewReader returns a reader of the decompressed stream.
func (GzipDecompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}

	return gr, nil
}
