// Package convert turns the source tables of a spatial single-cell dataset
// into the binary layout read by the viewer.
//
// A run is strictly sequential:
//
//  1. build the entity index from the coordinate table
//  2. write identifiers, coordinates, sections and cell types under base/
//  3. write one sparse file per qualifying feature under tfs/, a batch of
//     columns at a time
//  4. write metadata.json, consuming the gene hand-off document
//
// Failures in steps 1 and 2 abort the run. Everything after is best effort:
// failed feature batches and a missing gene hand-off are logged and skipped.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arloliu/cellbin/compress"
	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/format"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/metadata"
)

// Sources records the resolved location of every source table read.
type Sources struct {
	Coordinates string
	TFActivity  string
}

// ClassReport summarizes the conversion of one feature class.
type ClassReport struct {
	Class     string
	Inventory metadata.Inventory
	Batches   []BatchResult
	// FailedBatches is the number of batches that were skipped.
	FailedBatches int
	// Written is the number of feature files written.
	Written  int
	Features []FeatureStat
	// Coverage holds the position of every entity with at least one
	// qualifying value in any written feature.
	Coverage     *roaring.Bitmap
	CoveredCells uint64
}

// Report describes a completed run.
type Report struct {
	BinaryDir string
	Sources   Sources

	// TotalCells is the length of the canonical sequence and the row count
	// of every dense output.
	TotalCells  int
	UniqueCells int
	Duplicates  []index.Duplicate

	CoordinateColumns CoordinateColumns
	Sections          LabelReport
	CellTypes         LabelReport

	TFs ClassReport

	Genes metadata.Inventory
	// GenesHandedOff is true when a gene inventory was received.
	GenesHandedOff bool
	// StaleRemoved is the number of feature files of a previous run removed.
	StaleRemoved int

	Metadata metadata.Record
	// Digests maps every written binary file, relative to BinaryDir with
	// slash separators, to its xxHash64 digest.
	Digests map[string]uint64
}

// converter carries the state of one run.
type converter struct {
	cfg    *Config
	log    *Logger
	engine endian.EndianEngine
	out    *outputWriter
	idx    *index.Index
	report *Report
}

// Run converts the dataset described by cfg.
//
// The returned error is non-nil only for failures that leave the dense
// outputs unusable, or when ctx is cancelled between stages or batches.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", errs.ErrInvalidConfig)
	}

	c := &converter{
		cfg:    cfg,
		log:    cfg.Logger,
		engine: endian.GetLittleEndianEngine(),
		out:    newOutputWriter(cfg.BinaryDir),
		report: &Report{BinaryDir: cfg.BinaryDir},
	}
	if c.log == nil {
		c.log = NoopLogger()
	}

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{"base", c.runBase},
		{"tfs", c.runFeatures},
		{"metadata", c.runMetadata},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return c.report, err
		}
		if err := stage.run(ctx); err != nil {
			return c.report, fmt.Errorf("%s stage: %w", stage.name, err)
		}
	}
	c.report.Digests = c.out.digests

	return c.report, nil
}

func (c *converter) runBase(ctx context.Context) error {
	if err := c.out.prepare(); err != nil {
		return err
	}

	t, err := c.buildIndex(ctx)
	if err != nil {
		return err
	}
	if err := c.writeIdentifiers(); err != nil {
		return err
	}
	if err := c.writeCoordinates(t); err != nil {
		return err
	}

	if c.report.Sections, err = c.writeLabels(ctx, "section", c.cfg.Inputs.Sections, format.SectionsFile); err != nil {
		return err
	}
	if c.report.CellTypes, err = c.writeLabels(ctx, "celltype", c.cfg.Inputs.CellTypes, format.CellTypesFile); err != nil {
		return err
	}

	c.log.LogStage(ctx, "base",
		"cells", c.report.TotalCells,
		"unique", c.report.UniqueCells,
		"x", c.report.CoordinateColumns.XHeader,
		"y", c.report.CoordinateColumns.YHeader,
		"sections", c.report.Sections.Labelled,
		"celltypes", c.report.CellTypes.Labelled,
	)

	return nil
}

func (c *converter) runFeatures(ctx context.Context) error {
	tfs := &c.report.TFs
	tfs.Class = "tfs"
	tfs.Inventory = metadata.EmptyInventory()
	tfs.Coverage = roaring.New()

	removed, err := c.out.clearFeatures()
	if err != nil {
		return err
	}
	c.report.StaleRemoved = removed

	if c.cfg.Inputs.TFActivity == "" {
		return nil
	}
	path, err := compress.Resolve(c.cfg.sourcePath(c.cfg.Inputs.TFActivity))
	if errors.Is(err, errs.ErrMissingSource) {
		c.log.InfoContext(ctx, "no feature table, skipping", "class", tfs.Class, "table", c.cfg.Inputs.TFActivity)
		return nil
	}
	if err != nil {
		c.log.WarnContext(ctx, "feature table unreadable, skipping", "class", tfs.Class, "error", err)
		return nil
	}
	c.report.Sources.TFActivity = path

	reader := NewChunkedReader(path, c.cfg.ChunkSize)
	if _, err := reader.Header(); err != nil {
		c.log.WarnContext(ctx, "cannot read feature header, skipping", "class", tfs.Class, "path", path, "error", err)
		return nil
	}

	features := reader.Features()
	c.log.InfoContext(ctx, "converting features",
		"class", tfs.Class,
		"features", len(features),
		"chunk_size", c.cfg.ChunkSize,
	)

	enc := newFeatureEncoder(c.idx, c.out, c.engine)
	observe := func(r BatchResult) { c.log.LogBatch(ctx, r) }
	if err := reader.Each(ctx, enc.encodeBatch, observe); err != nil {
		return err
	}

	tfs.Inventory = metadata.Inventory{
		TotalFeatures:     len(features),
		FeaturesProcessed: reader.Processed(),
		FeatureList:       append([]string{}, features...),
	}
	tfs.Batches = reader.Results()
	tfs.FailedBatches = reader.Failed()
	tfs.Written = reader.Written()
	tfs.Features = enc.stats
	tfs.Coverage = enc.coverage
	tfs.CoveredCells = enc.coverage.GetCardinality()
	c.log.LogFeatureClass(ctx, *tfs)

	return nil
}

func (c *converter) runMetadata(ctx context.Context) error {
	handoff := c.cfg.Handoff
	if handoff == nil {
		handoff = metadata.NewFileHandoff(filepath.Join(c.cfg.BinaryDir, format.GeneHandoffFile))
	}

	genes, ok, err := handoff.Take()
	switch {
	case err != nil && !ok:
		c.log.WarnContext(ctx, "gene metadata unusable, recording no genes", "error", err)
	case err != nil:
		c.log.WarnContext(ctx, "gene metadata read but not consumed", "error", err)
	case !ok:
		c.log.WarnContext(ctx, "no gene metadata found, recording no genes")
	}
	c.report.Genes = genes
	c.report.GenesHandedOff = ok

	record := metadata.NewRecord(c.report.TotalCells, genes, c.report.TFs.Inventory, c.cfg.Clock())
	if err := metadata.Write(filepath.Join(c.cfg.BinaryDir, format.MetadataFile), record); err != nil {
		return err
	}
	c.report.Metadata = record

	c.log.LogStage(ctx, "metadata",
		"total_cells", record.TotalCells,
		"genes", record.Genes.Total,
		"tfs", record.TFs.Total,
	)

	return nil
}
