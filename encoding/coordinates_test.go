package encoding

import (
	"math"
	"testing"

	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/stretchr/testify/require"
)

func TestCoordinateEncoder_Write(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	encoder := NewCoordinateEncoder(engine)
	defer encoder.Finish()

	require.NoError(t, encoder.Write(Point{X: 1, Y: -2}))
	require.Equal(t, 1, encoder.Len())
	require.Equal(t, 12, encoder.Size())

	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x80, 0x3F, // 1.0
		0x00, 0x00, 0x00, 0xC0, // -2.0
	}
	require.Equal(t, want, encoder.Bytes())
}

func TestCoordinateEncoder_WriteSlice(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	encoder := NewCoordinateEncoder(engine)
	defer encoder.Finish()

	points := []Point{{1.5, 2.5}, {-3.25, 0}, {100, 200}}
	require.NoError(t, encoder.Write(Point{9, 9}))
	require.NoError(t, encoder.WriteSlice(points))
	require.NoError(t, encoder.WriteSlice(nil))
	require.Equal(t, 4, encoder.Len())

	decoded, err := NewCoordinateDecoder(engine).Decode(encoder.Bytes())
	require.NoError(t, err)
	require.Equal(t, append([]Point{{9, 9}}, points...), decoded)
}

func TestCoordinateEncoder_NaNPreserved(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	nan := float32(math.NaN())

	data, err := EncodeCoordinates([]Point{{X: nan, Y: 1}}, engine)
	require.NoError(t, err)

	p, ok := NewCoordinateDecoder(engine).At(data, 0)
	require.True(t, ok)
	require.True(t, math.IsNaN(float64(p.X)))
	require.Equal(t, float32(1), p.Y)
}

func TestCoordinateEncoder_Finish(t *testing.T) {
	encoder := NewCoordinateEncoder(endian.GetLittleEndianEngine())
	encoder.Finish()

	require.ErrorIs(t, encoder.Write(Point{}), errs.ErrEncoderFinished)
	require.Panics(t, func() { encoder.Bytes() })
}

func TestCoordinateDecoder(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	decoder := NewCoordinateDecoder(engine)

	data, err := EncodeCoordinates([]Point{{1, 2}, {3, 4}}, engine)
	require.NoError(t, err)

	t.Run("at", func(t *testing.T) {
		p, ok := decoder.At(data, 1)
		require.True(t, ok)
		require.Equal(t, Point{3, 4}, p)

		_, ok = decoder.At(data, 2)
		require.False(t, ok)
		_, ok = decoder.At(data, -1)
		require.False(t, ok)
		_, ok = decoder.At(data[:10], 1)
		require.False(t, ok)
	})

	t.Run("all", func(t *testing.T) {
		var got []Point
		for i, p := range decoder.All(data) {
			require.Equal(t, len(got), i)
			got = append(got, p)
		}
		require.Equal(t, []Point{{1, 2}, {3, 4}}, got)

		for range decoder.All(data[:len(data)-1]) {
			t.Fatal("malformed payload must not yield")
		}
	})

	t.Run("errors", func(t *testing.T) {
		_, err := decoder.Decode(data[:len(data)-1])
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)

		_, err = decoder.Decode(append(append([]byte(nil), data...), 0, 0))
		require.ErrorIs(t, err, errs.ErrTrailingBytes)

		_, err = decoder.Decode(nil)
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	})
}

func TestCoordinates_RoundTripIsByteIdentical(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	original, err := EncodeCoordinates([]Point{{0.1, 0.2}, {1e6, -1e-6}, {float32(math.Inf(1)), 0}}, engine)
	require.NoError(t, err)

	decoded, err := NewCoordinateDecoder(engine).Decode(original)
	require.NoError(t, err)

	reencoded, err := EncodeCoordinates(decoded, engine)
	require.NoError(t, err)
	require.Equal(t, original, reencoded)
}
