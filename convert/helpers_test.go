package convert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/endian"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 890000000, time.Local)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func testConfig(t *testing.T, dir string, opts ...Option) *Config {
	t.Helper()

	opts = append([]Option{WithLogger(NoopLogger()), WithClock(func() time.Time { return fixedNow })}, opts...)
	cfg, err := NewConfig(dir, opts...)
	require.NoError(t, err)

	return cfg
}

func readOutput(t *testing.T, cfg *Config, rel string) []byte {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(cfg.BinaryDir, rel))
	require.NoError(t, err)

	return data
}

func decodeStrings(t *testing.T, data []byte) []string {
	t.Helper()

	texts, err := encoding.NewVarStringDecoder(endian.GetLittleEndianEngine()).Decode(data)
	require.NoError(t, err)

	return texts
}

func decodePoints(t *testing.T, data []byte) []encoding.Point {
	t.Helper()

	points, err := encoding.NewCoordinateDecoder(endian.GetLittleEndianEngine()).Decode(data)
	require.NoError(t, err)

	return points
}

func decodeEntries(t *testing.T, data []byte) []encoding.Entry {
	t.Helper()

	entries, err := encoding.NewSparseDecoder(endian.GetLittleEndianEngine()).Decode(data)
	require.NoError(t, err)

	return entries
}
