package encoding

import (
	"fmt"
	"iter"
	"math"

	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
)

// lengthPrefixSize is the size of the u32 byte length preceding each string.
const lengthPrefixSize = 4

// VarStringEncoder encodes a column of strings with u32 length prefixes.
//
// Payload layout:
//   - 4 bytes: record count
//   - per record: 4 bytes byte length, then the raw UTF-8 bytes
//
// Empty strings are legal and encode as a zero length with no bytes.
type VarStringEncoder struct {
	payload
}

var _ ColumnarEncoder[string] = (*VarStringEncoder)(nil)

// NewVarStringEncoder creates a string column encoder using the given endian engine.
func NewVarStringEncoder(engine endian.EndianEngine) *VarStringEncoder {
	return &VarStringEncoder{payload: newPayload(engine)}
}

// Write appends a single string.
func (e *VarStringEncoder) Write(text string) error {
	if err := e.checkWritable(1); err != nil {
		return err
	}
	if err := checkTextLength(text); err != nil {
		return err
	}

	e.buf.Grow(lengthPrefixSize + len(text))
	e.writeText(text)
	e.count++

	return nil
}

// WriteSlice appends texts in order.
//
// All strings are validated before anything is written, so a failed call
// leaves the payload unchanged.
func (e *VarStringEncoder) WriteSlice(texts []string) error {
	if err := e.checkWritable(len(texts)); err != nil {
		return err
	}

	totalSize := 0
	for _, text := range texts {
		if err := checkTextLength(text); err != nil {
			return err
		}
		totalSize += lengthPrefixSize + len(text)
	}

	e.buf.Grow(totalSize)
	for _, text := range texts {
		e.writeText(text)
	}
	e.count += len(texts)

	return nil
}

// Bytes returns the complete payload. Panics after Finish.
func (e *VarStringEncoder) Bytes() []byte {
	return e.bytes()
}

// Len returns the number of strings written.
func (e *VarStringEncoder) Len() int {
	return e.count
}

// Size returns the payload size in bytes. Panics after Finish.
func (e *VarStringEncoder) Size() int {
	return e.size()
}

// Finish returns the buffer to the pool.
func (e *VarStringEncoder) Finish() {
	e.finish()
}

func (e *VarStringEncoder) writeText(text string) {
	e.buf.B = e.engine.AppendUint32(e.buf.B, uint32(len(text))) //nolint:gosec
	e.buf.MustWriteString(text)
}

func checkTextLength(text string) error {
	if uint64(len(text)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", errs.ErrTextTooLong, len(text))
	}

	return nil
}

// VarStringDecoder decodes payloads produced by VarStringEncoder.
type VarStringDecoder struct {
	engine endian.EndianEngine
}

var _ ColumnarDecoder[string] = VarStringDecoder{}

// NewVarStringDecoder creates a string column decoder using the given endian engine.
func NewVarStringDecoder(engine endian.EndianEngine) VarStringDecoder {
	return VarStringDecoder{engine: engine}
}

// Count returns the declared number of strings.
func (d VarStringDecoder) Count(data []byte) (int, error) {
	return readCount(data, d.engine)
}

// All yields each string with its index.
// Iteration stops at the first record that does not fit in data.
func (d VarStringDecoder) All(data []byte) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		count, err := readCount(data, d.engine)
		if err != nil {
			return
		}

		offset := countPrefixSize
		for i := range count {
			text, next, err := d.next(data, offset, i)
			if err != nil {
				return
			}
			offset = next

			if !yield(i, text) {
				return
			}
		}
	}
}

// Decode returns every string in data.
//
// It fails when a length prefix or string runs past the end of data, or when
// bytes remain after the declared records.
func (d VarStringDecoder) Decode(data []byte) ([]string, error) {
	count, err := readCount(data, d.engine)
	if err != nil {
		return nil, err
	}

	// Each record needs at least its length prefix.
	if (len(data)-countPrefixSize)/lengthPrefixSize < count {
		return nil, fmt.Errorf("%w: %d strings declared, payload holds at most %d",
			errs.ErrTruncatedPayload, count, (len(data)-countPrefixSize)/lengthPrefixSize)
	}

	texts := make([]string, count)
	offset := countPrefixSize
	for i := range count {
		texts[i], offset, err = d.next(data, offset, i)
		if err != nil {
			return nil, err
		}
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%w: %d extra bytes", errs.ErrTrailingBytes, len(data)-offset)
	}

	return texts, nil
}

func (d VarStringDecoder) next(data []byte, offset, i int) (string, int, error) {
	if len(data) < offset+lengthPrefixSize {
		return "", 0, fmt.Errorf("%w: cannot read length of string %d at offset %d (have %d bytes)",
			errs.ErrTruncatedPayload, i, offset, len(data))
	}

	n := int(d.engine.Uint32(data[offset:]))
	offset += lengthPrefixSize

	if len(data)-offset < n {
		return "", 0, fmt.Errorf("%w: string %d needs %d bytes at offset %d (have %d bytes)",
			errs.ErrTruncatedPayload, i, n, offset, len(data))
	}

	return string(data[offset : offset+n]), offset + n, nil
}

// EncodeStrings encodes texts into a new string column payload.
func EncodeStrings(texts []string, engine endian.EndianEngine) ([]byte, error) {
	enc := NewVarStringEncoder(engine)
	defer enc.Finish()

	if err := enc.WriteSlice(texts); err != nil {
		return nil, err
	}

	return append([]byte(nil), enc.Bytes()...), nil
}
