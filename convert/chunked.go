package convert

import (
	"context"
	"iter"

	"github.com/arloliu/cellbin/table"
)

// Batch is a contiguous slice of the feature columns of a feature table.
type Batch struct {
	Index int
	// Start and End delimit the slice within the feature list, End exclusive.
	Start    int
	End      int
	Features []string
}

// BatchResult is the outcome of converting one Batch.
type BatchResult struct {
	Batch
	// Processed is the number of features accounted as processed. It is
	// zero when the batch failed.
	Processed int
	// Written is the number of feature files written, including those
	// written before a failure.
	Written int
	Err     error
}

// OK reports whether the batch completed.
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// BatchFunc converts one loaded batch and returns the number of files written.
// Column 0 of t holds the identifiers; column i+1 holds b.Features[i].
type BatchFunc func(ctx context.Context, b Batch, t *table.Table) (written int, err error)

// ChunkedReader reads a wide feature table a slice of columns at a time.
//
// The first column holds entity identifiers and every other column is a
// feature. Each batch re-reads the table projecting only the identifier
// column and the batch's features, bounding memory by the chunk size.
type ChunkedReader struct {
	path      string
	chunkSize int
	header    table.Header
	results   []BatchResult
}

// NewChunkedReader creates a reader over the table at path.
func NewChunkedReader(path string, chunkSize int) *ChunkedReader {
	return &ChunkedReader{path: path, chunkSize: max(chunkSize, 1)}
}

// Header reads the header record. It reads the file once and caches the result.
//
// Repeated column names are suffixed (tfX, tfX.1) so every feature keeps
// its own output file and inventory entry.
func (r *ChunkedReader) Header() (table.Header, error) {
	if r.header != nil {
		return r.header, nil
	}

	header, err := table.ReadHeader(r.path)
	if err != nil {
		return nil, err
	}
	r.header = header.Deduplicate()

	return r.header, nil
}

// Features returns the feature names in column order. Header must have
// succeeded first.
func (r *ChunkedReader) Features() []string {
	if len(r.header) < 2 {
		return []string{}
	}

	return r.header[1:]
}

// Batches yields consecutive feature slices of at most the chunk size.
func (r *ChunkedReader) Batches() iter.Seq[Batch] {
	features := r.Features()

	return func(yield func(Batch) bool) {
		for i, start := 0, 0; start < len(features); i, start = i+1, start+r.chunkSize {
			end := min(start+r.chunkSize, len(features))
			if !yield(Batch{Index: i, Start: start, End: end, Features: features[start:end]}) {
				return
			}
		}
	}
}

// Load reads the identifier column and the columns of b.
func (r *ChunkedReader) Load(b Batch) (*table.Table, error) {
	indices := make([]int, 0, b.End-b.Start+1)
	indices = append(indices, 0)
	for i := b.Start; i < b.End; i++ {
		indices = append(indices, i+1)
	}

	return table.ReadColumns(r.path, indices)
}

// Each loads and converts every batch in order. A batch that fails to load
// or convert is recorded and skipped. Only cancellation of ctx stops the
// iteration early, and its error is returned.
func (r *ChunkedReader) Each(ctx context.Context, fn BatchFunc, observe func(BatchResult)) error {
	for b := range r.Batches() {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := BatchResult{Batch: b}
		t, err := r.Load(b)
		if err == nil {
			result.Written, err = fn(ctx, b, t)
		}
		if err != nil {
			result.Err = err
		} else {
			result.Processed = b.End - b.Start
		}

		r.results = append(r.results, result)
		if observe != nil {
			observe(result)
		}
	}

	return nil
}

// Results returns the result of every batch run so far.
func (r *ChunkedReader) Results() []BatchResult {
	return r.results
}

// Processed returns the number of features in successful batches.
func (r *ChunkedReader) Processed() int {
	n := 0
	for _, res := range r.results {
		n += res.Processed
	}

	return n
}

// Written returns the number of feature files written.
func (r *ChunkedReader) Written() int {
	n := 0
	for _, res := range r.results {
		n += res.Written
	}

	return n
}

// Failed returns the number of failed batches.
func (r *ChunkedReader) Failed() int {
	n := 0
	for _, res := range r.results {
		if !res.OK() {
			n++
		}
	}

	return n
}
