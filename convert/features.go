package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/table"
)

// FeatureStat describes one written feature file.
type FeatureStat struct {
	Name    string
	Entries int
	// Cells is the number of distinct entities with a qualifying value.
	Cells uint64
}

// featureEncoder turns feature columns into sparse files and tracks which
// entities carry any qualifying value.
type featureEncoder struct {
	idx      *index.Index
	out      *outputWriter
	engine   endian.EndianEngine
	coverage *roaring.Bitmap
	stats    []FeatureStat
}

func newFeatureEncoder(idx *index.Index, out *outputWriter, engine endian.EndianEngine) *featureEncoder {
	return &featureEncoder{
		idx:      idx,
		out:      out,
		engine:   engine,
		coverage: roaring.New(),
	}
}

// encodeBatch is a BatchFunc. It stops at the first failing feature; files
// written before the failure stay on disk.
func (f *featureEncoder) encodeBatch(_ context.Context, b Batch, t *table.Table) (int, error) {
	ids := t.Columns[0]

	written := 0
	for i, name := range b.Features {
		ok, err := f.encodeFeature(name, ids, t.Columns[i+1])
		if err != nil {
			return written, fmt.Errorf("feature %q: %w", name, err)
		}
		if ok {
			written++
		}
	}

	return written, nil
}

// encodeFeature writes the sparse file of one feature column. It reports
// false without writing when no observation qualifies.
func (f *featureEncoder) encodeFeature(name string, ids, values []string) (bool, error) {
	if err := ValidateFeatureName(name); err != nil {
		return false, err
	}

	enc := encoding.NewSparseEncoder(f.engine)
	defer enc.Finish()

	cells := roaring.New()
	for row, cell := range values {
		v, missing, err := table.ParseFloat(cell)
		if err != nil {
			return false, fmt.Errorf("row %d: %w", row, err)
		}
		if missing || v == 0 {
			continue
		}

		pos, ok := f.idx.Position(ids[row])
		if !ok {
			continue
		}
		if err := enc.Append(pos, v); err != nil {
			return false, fmt.Errorf("row %d: %w", row, err)
		}
		cells.Add(uint32(pos)) //nolint:gosec
	}

	if enc.Len() == 0 {
		return false, nil
	}

	if err := f.out.write(featurePath(name), enc.Bytes()); err != nil {
		return false, err
	}

	f.coverage.Or(cells)
	f.stats = append(f.stats, FeatureStat{
		Name:    name,
		Entries: enc.Len(),
		Cells:   cells.GetCardinality(),
	})

	return true, nil
}

// ValidateFeatureName rejects names that cannot be used as a file name
// inside the feature directory.
func ValidateFeatureName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidFeatureName, name)
	}

	return nil
}
