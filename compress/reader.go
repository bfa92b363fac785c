package compress

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/format"
)

// Decompressor wraps a compressed stream in a reader of the original bytes.
//
// Closing the returned reader releases decoder resources; it does not close
// the underlying stream.
type Decompressor interface {
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var builtinDecompressors = map[format.CompressionType]Decompressor{
	format.CompressionNone: NewNoOpDecompressor(),
	format.CompressionGzip: NewGzipDecompressor(),
	format.CompressionZstd: NewZstdDecompressor(),
	format.CompressionS2:   NewS2Decompressor(),
	format.CompressionLZ4:  NewLZ4Decompressor(),
}

// GetDecompressor returns the built-in Decompressor for a compression type.
func GetDecompressor(compressionType format.CompressionType) (Decompressor, error) {
	if d, ok := builtinDecompressors[compressionType]; ok {
		return d, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Open opens the table at path and transparently decompresses it according
// to its suffix.
func Open(path string) (io.ReadCloser, error) {
	d, err := GetDecompressor(format.CompressionOf(path))
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r, err := d.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s stream %s: %w", format.CompressionOf(path), path, err)
	}

	return &fileReader{ReadCloser: r, file: f}, nil
}

// Resolve returns the path of the first existing variant of base, trying the
// plain name and then each compressed suffix. It returns an error satisfying
// errors.Is(err, errs.ErrMissingSource) when no variant exists.
func Resolve(base string) (string, error) {
	for _, s := range format.SourceSuffixes {
		path := base + s.Suffix
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}

	return "", fmt.Errorf("%w: %s", errs.ErrMissingSource, base)
}

// fileReader closes both the decoder and the file it reads from.
type fileReader struct {
	io.ReadCloser
	file *os.File
}

func (r *fileReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}

	return err
}
