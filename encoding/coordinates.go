package encoding

import (
	"iter"
	"math"

	"github.com/arloliu/cellbin/endian"
)

// pointSize is the encoded size of one coordinate pair.
const pointSize = 8

// Point is a 2D entity coordinate.
type Point struct {
	X float32
	Y float32
}

// CoordinateEncoder encodes a dense column of coordinate pairs.
//
// Payload layout:
//   - 4 bytes: record count
//   - per record: 4 bytes IEEE-754 x, 4 bytes IEEE-754 y
//
// NaN and infinities are stored as-is.
type CoordinateEncoder struct {
	payload
}

var _ ColumnarEncoder[Point] = (*CoordinateEncoder)(nil)

// NewCoordinateEncoder creates a coordinate encoder using the given endian engine.
func NewCoordinateEncoder(engine endian.EndianEngine) *CoordinateEncoder {
	return &CoordinateEncoder{payload: newPayload(engine)}
}

// Write appends a single coordinate pair.
func (e *CoordinateEncoder) Write(p Point) error {
	if err := e.checkWritable(1); err != nil {
		return err
	}

	offset := e.buf.Len()
	e.buf.ExtendOrGrow(pointSize)
	e.putPoint(offset, p)
	e.count++

	return nil
}

// WriteSlice appends coordinate pairs in order, growing the buffer once.
func (e *CoordinateEncoder) WriteSlice(points []Point) error {
	if err := e.checkWritable(len(points)); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	start := e.buf.Len()
	e.buf.ExtendOrGrow(len(points) * pointSize)
	for i, p := range points {
		e.putPoint(start+i*pointSize, p)
	}
	e.count += len(points)

	return nil
}

// Bytes returns the complete payload. Panics after Finish.
func (e *CoordinateEncoder) Bytes() []byte {
	return e.bytes()
}

// Len returns the number of pairs written.
func (e *CoordinateEncoder) Len() int {
	return e.count
}

// Size returns the payload size in bytes. Panics after Finish.
func (e *CoordinateEncoder) Size() int {
	return e.size()
}

// Finish returns the buffer to the pool.
func (e *CoordinateEncoder) Finish() {
	e.finish()
}

// putPoint fills the already extended record slot at offset.
func (e *CoordinateEncoder) putPoint(offset int, p Point) {
	e.engine.PutUint32(e.buf.Slice(offset, offset+4), math.Float32bits(p.X))
	e.engine.PutUint32(e.buf.Slice(offset+4, offset+8), math.Float32bits(p.Y))
}

// CoordinateDecoder decodes payloads produced by CoordinateEncoder.
type CoordinateDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[Point] = CoordinateDecoder{}

// NewCoordinateDecoder creates a coordinate decoder using the given endian engine.
func NewCoordinateDecoder(engine endian.EndianEngine) CoordinateDecoder {
	return CoordinateDecoder{engine: engine}
}

// Count returns the declared number of pairs.
func (d CoordinateDecoder) Count(data []byte) (int, error) {
	return readCount(data, d.engine)
}

// All yields each pair with its position. Nothing is yielded for a malformed payload.
func (d CoordinateDecoder) All(data []byte) iter.Seq2[int, Point] {
	return func(yield func(int, Point) bool) {
		body, count, err := fixedRecords(data, d.engine, pointSize)
		if err != nil {
			return
		}

		for i := range count {
			if !yield(i, d.point(body, i)) {
				return
			}
		}
	}
}

// At returns the pair at position index.
func (d CoordinateDecoder) At(data []byte, index int) (Point, bool) {
	count, err := readCount(data, d.engine)
	if err != nil || index < 0 || index >= count {
		return Point{}, false
	}

	body := data[countPrefixSize:]
	if len(body) < (index+1)*pointSize {
		return Point{}, false
	}

	return d.point(body, index), true
}

// Decode validates data and returns every pair.
func (d CoordinateDecoder) Decode(data []byte) ([]Point, error) {
	body, count, err := fixedRecords(data, d.engine, pointSize)
	if err != nil {
		return nil, err
	}

	points := make([]Point, count)
	for i := range points {
		points[i] = d.point(body, i)
	}

	return points, nil
}

func (d CoordinateDecoder) point(body []byte, i int) Point {
	offset := i * pointSize

	return Point{
		X: math.Float32frombits(d.engine.Uint32(body[offset:])),
		Y: math.Float32frombits(d.engine.Uint32(body[offset+4:])),
	}
}

// EncodeCoordinates encodes points into a new coordinate payload.
func EncodeCoordinates(points []Point, engine endian.EndianEngine) ([]byte, error) {
	enc := NewCoordinateEncoder(engine)
	defer enc.Finish()

	if err := enc.WriteSlice(points); err != nil {
		return nil, err
	}

	return append([]byte(nil), enc.Bytes()...), nil
}
