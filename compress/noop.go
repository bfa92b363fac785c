package compress

import "io"

// NoOpDecompressor passes plain tables through unchanged.
type NoOpDecompressor struct{}

var _ Decompressor = NoOpDecompressor{}

// NewNoOpDecompressor creates a pass-through decompressor.
func NewNoOpDecompressor() NoOpDecompressor {
	return NoOpDecompressor{}
}

// NewReader returns r unchanged.
func (NoOpDecompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}
