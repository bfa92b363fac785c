package hash

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Sum computes the xxHash64 digest of an encoded payload.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// File computes the xxHash64 digest of the file at path.
func File(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	return Reader(f)
}

// Reader computes the xxHash64 digest of everything readable from r.
func Reader(r io.Reader) (uint64, error) {
	d := xxhash.New()
	if _, err := io.Copy(d, r); err != nil {
		return 0, fmt.Errorf("hashing payload: %w", err)
	}

	return d.Sum64(), nil
}

// Format renders a digest the way the digest command prints it.
func Format(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
