// Package encoding implements the cellbin payload codecs.
//
// Every payload starts with a little-endian u32 record count followed by the
// records themselves, with no header, padding or terminator:
//
//	strings      [u32 count][(u32 len, utf8 bytes) × count]
//	coordinates  [u32 count][(f32 x, f32 y) × count]
//	sparse       [u32 count][(u32 position, f32 value) × count]
//
// Encoders assemble the payload in a pooled buffer and patch the count prefix
// when the bytes are requested, so records can be streamed in without knowing
// the final count up front:
//
//	enc := encoding.NewVarStringEncoder(endian.GetLittleEndianEngine())
//	defer enc.Finish()
//
//	for _, id := range ids {
//	    if err := enc.Write(id); err != nil {
//	        return err
//	    }
//	}
//	payload := enc.Bytes()
//
// Decoders are stateless values. Decode validates the whole payload, including
// that no bytes trail the declared records; All iterates lazily and stops at
// the first malformed record.
package encoding
