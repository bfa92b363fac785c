package encoding

import (
	"fmt"
	"iter"
	"math"

	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/internal/pool"
)

// countPrefixSize is the size of the u32 record count that starts every payload.
const countPrefixSize = 4

// ColumnarEncoder is implemented by the count-prefixed payload encoders.
type ColumnarEncoder[T any] interface {
	// Write appends a single record.
	Write(v T) error

	// WriteSlice appends records in order. On error nothing from values is written.
	WriteSlice(values []T) error

	// Bytes returns the complete payload, count prefix included.
	// The slice is valid until the next Write or Finish and must not be modified.
	Bytes() []byte

	// Len returns the number of records written.
	Len() int

	// Size returns the payload size in bytes, count prefix included.
	Size() int

	// Finish returns the buffer to the pool. The encoder is unusable afterwards.
	Finish()
}

// ColumnarDecoder is implemented by the count-prefixed payload decoders.
type ColumnarDecoder[T any] interface {
	// Count returns the declared record count.
	Count(data []byte) (int, error)

	// All yields records with their index, stopping early on malformed data.
	All(data []byte) iter.Seq2[int, T]

	// Decode validates data and returns every record.
	Decode(data []byte) ([]T, error)
}

// payload is the count-prefixed buffer shared by the encoders.
type payload struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	count  int
}

func newPayload(engine endian.EndianEngine) payload {
	buf := pool.GetPayloadBuffer()
	buf.ExtendOrGrow(countPrefixSize)

	return payload{buf: buf, engine: engine}
}

func (p *payload) checkWritable(n int) error {
	if p.buf == nil {
		return errs.ErrEncoderFinished
	}
	if uint64(p.count)+uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%w: %d records", errs.ErrCountOverflow, uint64(p.count)+uint64(n))
	}

	return nil
}

func (p *payload) bytes() []byte {
	if p.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	p.engine.PutUint32(p.buf.Slice(0, countPrefixSize), uint32(p.count)) //nolint:gosec

	return p.buf.Bytes()
}

func (p *payload) size() int {
	if p.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return p.buf.Len()
}

func (p *payload) finish() {
	if p.buf != nil {
		pool.PutPayloadBuffer(p.buf)
		p.buf = nil
	}
	p.count = 0
}

// readCount reads the count prefix of data.
func readCount(data []byte, engine endian.EndianEngine) (int, error) {
	if len(data) < countPrefixSize {
		return 0, fmt.Errorf("%w: cannot read record count (need %d bytes, have %d)",
			errs.ErrTruncatedPayload, countPrefixSize, len(data))
	}

	return int(engine.Uint32(data)), nil
}

// fixedRecords validates a payload of fixed-width records and returns its body.
func fixedRecords(data []byte, engine endian.EndianEngine, width int) ([]byte, int, error) {
	count, err := readCount(data, engine)
	if err != nil {
		return nil, 0, err
	}

	body := data[countPrefixSize:]
	want := count * width
	if len(body) < want {
		return nil, 0, fmt.Errorf("%w: %d records need %d bytes, have %d",
			errs.ErrTruncatedPayload, count, want, len(body))
	}
	if len(body) > want {
		return nil, 0, fmt.Errorf("%w: %d extra bytes", errs.ErrTrailingBytes, len(body)-want)
	}

	return body, count, nil
}
