package encoding

import (
	"fmt"
	"iter"
	"math"

	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
)

// entrySize is the encoded size of one sparse entry.
const entrySize = 8

// Entry is one qualifying observation of a sparse feature.
type Entry struct {
	Position uint32
	Value    float32
}

// NewEntry converts a canonical position and a source value to an Entry.
//
// Finite values that round to infinity as float32 are rejected with
// errs.ErrValueOverflow, positions outside the u32 range with
// errs.ErrPositionOverflow.
func NewEntry(position int, value float64) (Entry, error) {
	if position < 0 || uint64(position) > math.MaxUint32 {
		return Entry{}, fmt.Errorf("%w: %d", errs.ErrPositionOverflow, position)
	}

	v := float32(value)
	if math.IsInf(float64(v), 0) && !math.IsInf(value, 0) {
		return Entry{}, fmt.Errorf("%w: %g", errs.ErrValueOverflow, value)
	}

	return Entry{Position: uint32(position), Value: v}, nil
}

// SparseEncoder encodes the qualifying observations of one feature.
//
// Payload layout:
//   - 4 bytes: entry count
//   - per entry: 4 bytes u32 position, 4 bytes IEEE-754 value
//
// Entries keep the order they were written in; they are not sorted by position.
type SparseEncoder struct {
	payload
}

var _ ColumnarEncoder[Entry] = (*SparseEncoder)(nil)

// NewSparseEncoder creates a sparse feature encoder using the given endian engine.
func NewSparseEncoder(engine endian.EndianEngine) *SparseEncoder {
	return &SparseEncoder{payload: newPayload(engine)}
}

// Write appends a single entry.
func (e *SparseEncoder) Write(entry Entry) error {
	if err := e.checkWritable(1); err != nil {
		return err
	}

	offset := e.buf.Len()
	e.buf.ExtendOrGrow(entrySize)
	e.putEntry(offset, entry)
	e.count++

	return nil
}

// Append converts position and value with NewEntry and writes the result.
func (e *SparseEncoder) Append(position int, value float64) error {
	entry, err := NewEntry(position, value)
	if err != nil {
		return err
	}

	return e.Write(entry)
}

// WriteSlice appends entries in order, growing the buffer once.
func (e *SparseEncoder) WriteSlice(entries []Entry) error {
	if err := e.checkWritable(len(entries)); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	start := e.buf.Len()
	e.buf.ExtendOrGrow(len(entries) * entrySize)
	for i, entry := range entries {
		e.putEntry(start+i*entrySize, entry)
	}
	e.count += len(entries)

	return nil
}

// Bytes returns the complete payload. Panics after Finish.
func (e *SparseEncoder) Bytes() []byte {
	return e.bytes()
}

// Len returns the number of entries written.
func (e *SparseEncoder) Len() int {
	return e.count
}

// Size returns the payload size in bytes. Panics after Finish.
func (e *SparseEncoder) Size() int {
	return e.size()
}

// Finish returns the buffer to the pool.
func (e *SparseEncoder) Finish() {
	e.finish()
}

func (e *SparseEncoder) putEntry(offset int, entry Entry) {
	e.engine.PutUint32(e.buf.Slice(offset, offset+4), entry.Position)
	e.engine.PutUint32(e.buf.Slice(offset+4, offset+8), math.Float32bits(entry.Value))
}

// SparseDecoder decodes payloads produced by SparseEncoder.
type SparseDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[Entry] = SparseDecoder{}

// NewSparseDecoder creates a sparse feature decoder using the given endian engine.
func NewSparseDecoder(engine endian.EndianEngine) SparseDecoder {
	return SparseDecoder{engine: engine}
}

// Count returns the declared number of entries.
func (d SparseDecoder) Count(data []byte) (int, error) {
	return readCount(data, d.engine)
}

// All yields each entry with its index in the payload.
// Nothing is yielded for a malformed payload.
func (d SparseDecoder) All(data []byte) iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		body, count, err := fixedRecords(data, d.engine, entrySize)
		if err != nil {
			return
		}

		for i := range count {
			if !yield(i, d.entry(body, i)) {
				return
			}
		}
	}
}

// At returns the entry at payload index i.
func (d SparseDecoder) At(data []byte, i int) (Entry, bool) {
	count, err := readCount(data, d.engine)
	if err != nil || i < 0 || i >= count {
		return Entry{}, false
	}

	body := data[countPrefixSize:]
	if len(body) < (i+1)*entrySize {
		return Entry{}, false
	}

	return d.entry(body, i), true
}

// Decode validates data and returns every entry.
func (d SparseDecoder) Decode(data []byte) ([]Entry, error) {
	body, count, err := fixedRecords(data, d.engine, entrySize)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, count)
	for i := range entries {
		entries[i] = d.entry(body, i)
	}

	return entries, nil
}

func (d SparseDecoder) entry(body []byte, i int) Entry {
	offset := i * entrySize

	return Entry{
		Position: d.engine.Uint32(body[offset:]),
		Value:    math.Float32frombits(d.engine.Uint32(body[offset+4:])),
	}
}

// EncodeSparse encodes entries into a new sparse feature payload.
func EncodeSparse(entries []Entry, engine endian.EndianEngine) ([]byte, error) {
	enc := NewSparseEncoder(engine)
	defer enc.Finish()

	if err := enc.WriteSlice(entries); err != nil {
		return nil, err
	}

	return append([]byte(nil), enc.Bytes()...), nil
}
