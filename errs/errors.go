// Package errs defines the sentinel errors shared across cellbin packages.
//
// Call sites wrap these with additional context using fmt.Errorf and the %w verb,
// so callers can test for a failure class with errors.Is regardless of detail.
package errs

import "errors"

// Configuration errors.
var (
	// ErrInvalidConfig indicates a conversion configuration that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnresolvableColumns indicates that the coordinate columns could be resolved
	// neither by name nor by position. It aborts the conversion.
	ErrUnresolvableColumns = errors.New("coordinate columns cannot be resolved")

	// ErrMissingSource indicates a required source table does not exist.
	ErrMissingSource = errors.New("source table not found")
)

// Source data errors.
var (
	// ErrInvalidNumber indicates a table cell that is neither missing nor numeric.
	ErrInvalidNumber = errors.New("invalid numeric value")

	// ErrValueOverflow indicates a finite value that cannot be represented as float32.
	ErrValueOverflow = errors.New("value overflows float32")

	// ErrDuplicateIdentifier is returned by the Reject duplicate policy when the
	// canonical table lists the same identifier twice.
	ErrDuplicateIdentifier = errors.New("duplicate entity identifier")

	// ErrEmptyHeader indicates a table without a header record.
	ErrEmptyHeader = errors.New("table header is empty")

	// ErrColumnNotFound indicates a projected column that is absent from the header.
	ErrColumnNotFound = errors.New("column not found")

	// ErrInvalidFeatureName indicates a feature name that cannot be used as a file name.
	ErrInvalidFeatureName = errors.New("invalid feature name")
)

// Encoding and decoding errors.
var (
	// ErrCountOverflow indicates more records than a u32 count prefix can hold.
	ErrCountOverflow = errors.New("record count exceeds uint32")

	// ErrTextTooLong indicates a string longer than a u32 length prefix can hold.
	ErrTextTooLong = errors.New("text length exceeds uint32")

	// ErrPositionOverflow indicates an entity position that does not fit in uint32.
	ErrPositionOverflow = errors.New("entity position exceeds uint32")

	// ErrTruncatedPayload indicates a binary payload shorter than its prefixes declare.
	ErrTruncatedPayload = errors.New("truncated payload")

	// ErrTrailingBytes indicates bytes left over after the declared records.
	ErrTrailingBytes = errors.New("trailing bytes after payload")

	// ErrEncoderFinished indicates use of an encoder after Finish.
	ErrEncoderFinished = errors.New("encoder already finished")

	// ErrUnknownPayload indicates a file whose payload layout cannot be
	// inferred from its name.
	ErrUnknownPayload = errors.New("unknown payload kind")
)

// Compression errors.
var (
	// ErrUnsupportedCompression indicates a source compression type with no decoder.
	ErrUnsupportedCompression = errors.New("unsupported compression type")
)
