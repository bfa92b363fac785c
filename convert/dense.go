package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/cellbin/compress"
	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/format"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/table"
)

// LabelReport describes how one categorical attribute was resolved.
type LabelReport struct {
	Source string
	// Found is false when the table was absent or unreadable and every
	// label defaulted to "".
	Found bool
	// Labelled is the number of entities with a non-empty label.
	Labelled int
}

// buildIndex reads the coordinate table and creates the entity index.
func (c *converter) buildIndex(ctx context.Context) (*table.Table, error) {
	path, err := compress.Resolve(c.cfg.sourcePath(c.cfg.Inputs.Coordinates))
	if err != nil {
		return nil, err
	}
	c.report.Sources.Coordinates = path

	t, err := table.ReadAll(path)
	if err != nil {
		return nil, err
	}

	c.idx, err = index.Build(t.Columns[0], index.WithDuplicatePolicy(c.cfg.DuplicatePolicy))
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}

	c.report.TotalCells = c.idx.Len()
	c.report.UniqueCells = c.idx.Unique()
	c.report.Duplicates = c.idx.Duplicates()
	if len(c.report.Duplicates) > 0 {
		c.log.WarnContext(ctx, "repeated cell identifiers in coordinate table",
			"path", path,
			"duplicates", len(c.report.Duplicates),
			"policy", c.idx.Policy(),
			"first", c.report.Duplicates[0].ID,
		)
	}

	return t, nil
}

// writeIdentifiers writes the canonical identifier sequence.
func (c *converter) writeIdentifiers() error {
	data, err := encoding.EncodeStrings(c.idx.IDs(), c.engine)
	if err != nil {
		return fmt.Errorf("encoding cell identifiers: %w", err)
	}

	return c.out.write(basePath(format.CellIDsFile), data)
}

// writeCoordinates resolves the x/y columns and writes one point per entity.
func (c *converter) writeCoordinates(t *table.Table) error {
	path := c.report.Sources.Coordinates
	cols, err := ResolveCoordinateColumns(path, t.Header)
	if err != nil {
		return err
	}
	c.report.CoordinateColumns = cols

	points, err := ParsePoints(t.Columns[cols.X], t.Columns[cols.Y])
	if err != nil {
		return fmt.Errorf("parsing coordinates in %s: %w", path, err)
	}

	data, err := encoding.EncodeCoordinates(points, c.engine)
	if err != nil {
		return fmt.Errorf("encoding coordinates: %w", err)
	}

	return c.out.write(basePath(format.CoordsFile), data)
}

// writeLabels writes one label per entity from an auxiliary table. An absent
// or unreadable table leaves every label empty.
func (c *converter) writeLabels(ctx context.Context, attribute, source, file string) (LabelReport, error) {
	labels, report := c.loadLabels(ctx, attribute, source)

	data, err := encoding.EncodeStrings(labels.Resolve(c.idx.IDs()), c.engine)
	if err != nil {
		return report, fmt.Errorf("encoding %s labels: %w", attribute, err)
	}
	for _, id := range c.idx.IDs() {
		if labels[id] != "" {
			report.Labelled++
		}
	}

	return report, c.out.write(basePath(file), data)
}

func (c *converter) loadLabels(ctx context.Context, attribute, source string) (LabelMap, LabelReport) {
	report := LabelReport{}
	if source == "" {
		return LabelMap{}, report
	}

	path, err := compress.Resolve(c.cfg.sourcePath(source))
	if errors.Is(err, errs.ErrMissingSource) {
		c.log.WarnContext(ctx, "label table not found, labels default to empty",
			"attribute", attribute, "table", source)

		return LabelMap{}, report
	}
	if err == nil {
		report.Source = path
		var labels LabelMap
		if labels, err = LoadLabelMap(path); err == nil {
			report.Found = true
			return labels, report
		}
	}

	c.log.WarnContext(ctx, "label table unreadable, labels default to empty",
		"attribute", attribute, "table", source, "error", err)

	return LabelMap{}, report
}
