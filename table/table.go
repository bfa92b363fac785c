// Package table reads the comma-separated source tables.
//
// Tables are read column-major: a caller names the columns it needs and only
// those are materialized, which lets the feature converter bound memory by
// loading a slice of a wide table at a time. Files may be compressed; see
// package compress.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/cellbin/compress"
	"github.com/arloliu/cellbin/errs"
)

const utf8BOM = "\ufeff"

// Header is the ordered list of column names of a table.
type Header []string

// Index returns the position of the first column called name, or -1.
func (h Header) Index(name string) int {
	for i, n := range h {
		if n == name {
			return i
		}
	}

	return -1
}

// Has reports whether every name is a column of h.
func (h Header) Has(names ...string) bool {
	for _, name := range names {
		if h.Index(name) < 0 {
			return false
		}
	}

	return true
}

// Indices resolves names to column positions.
func (h Header) Indices(names ...string) ([]int, error) {
	indices := make([]int, len(names))
	for i, name := range names {
		idx := h.Index(name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", errs.ErrColumnNotFound, name)
		}
		indices[i] = idx
	}

	return indices, nil
}

// Deduplicate returns a copy of h in which repeated names get a ".N" suffix,
// N counting the earlier occurrences: "a", "a", "a" becomes "a", "a.1", "a.2".
// A suffixed name that collides with an earlier column is suffixed again,
// so every name in the result is distinct.
func (h Header) Deduplicate() Header {
	out := make(Header, len(h))
	counts := make(map[string]int, len(h))
	for i, name := range h {
		n := counts[name]
		for n > 0 {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
			n = counts[name]
		}
		out[i] = name
		counts[name] = n + 1
	}

	return out
}

// Table holds projected columns of a source table.
type Table struct {
	// Header names the projected columns, in projection order.
	Header Header
	// Columns holds one slice of raw cell values per projected column.
	Columns [][]string
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}

	return len(t.Columns[0])
}

// Column returns the values of the projected column called name.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.Header.Index(name)
	if idx < 0 {
		return nil, false
	}

	return t.Columns[idx], true
}

// ReadHeader reads only the header record of the table at path.
func ReadHeader(path string) (Header, error) {
	rc, err := compress.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return readHeader(newCSVReader(rc), path)
}

// ReadAll reads every column of the table at path.
func ReadAll(path string) (*Table, error) {
	return read(path, nil)
}

// ReadColumns reads the columns at the given header positions, in that order.
//
// Rows shorter than the header yield empty strings for the absent cells and
// extra cells beyond the header are ignored.
func ReadColumns(path string, indices []int) (*Table, error) {
	if indices == nil {
		indices = []int{}
	}

	return read(path, indices)
}

// ReadNamed reads the named columns, in the given order.
func ReadNamed(path string, names ...string) (*Table, error) {
	header, err := ReadHeader(path)
	if err != nil {
		return nil, err
	}

	indices, err := header.Indices(names...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return ReadColumns(path, indices)
}

func read(path string, indices []int) (*Table, error) {
	rc, err := compress.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := newCSVReader(rc)
	header, err := readHeader(r, path)
	if err != nil {
		return nil, err
	}

	if indices == nil {
		indices = make([]int, len(header))
		for i := range indices {
			indices[i] = i
		}
	}

	t := &Table{
		Header:  make(Header, len(indices)),
		Columns: make([][]string, len(indices)),
	}
	for i, idx := range indices {
		if idx < 0 || idx >= len(header) {
			return nil, fmt.Errorf("%w: index %d of %d columns in %s", errs.ErrColumnNotFound, idx, len(header), path)
		}
		t.Header[i] = header[idx]
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		for i, idx := range indices {
			var cell string
			if idx < len(row) {
				cell = row[idx]
			}
			t.Columns[i] = append(t.Columns[i], cell)
		}
	}

	return t, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	return cr
}

func readHeader(r *csv.Reader, path string) (Header, error) {
	record, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s", errs.ErrEmptyHeader, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	header := make(Header, len(record))
	copy(header, record)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	return header, nil
}
