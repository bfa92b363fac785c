// Package cellbin converts spatial single-cell datasets from CSV tables into
// a compact binary layout that a viewer can load with random access.
//
// # Layout
//
// All outputs live below the binary directory (<data-dir>/binary by default):
//
//	base/cell_ids.bin      [u32 count][(u32 len, utf8 bytes) x count]
//	base/sections.bin      same layout as cell_ids.bin
//	base/celltypes.bin     same layout as cell_ids.bin
//	base/coordinates.bin   [u32 count][(f32 x, f32 y) x count]
//	tfs/<feature>.bin      [u32 count][(u32 position, f32 value) x count]
//	metadata.json          descriptive record
//
// Integers are little-endian u32 and floats IEEE-754 f32. Every dense file
// holds one record per entity, in coordinate table order. A feature file only
// exists when at least one observation is non-zero and non-missing.
//
// # Basic Usage
//
// Converting a dataset:
//
//	report, err := cellbin.Convert(ctx, "/data/embryo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.TotalCells, report.TFs.Written)
//
// Loading outputs:
//
//	ids, _ := cellbin.LoadStrings("/data/embryo/binary/base/cell_ids.bin")
//	entries, _ := cellbin.LoadFeature("/data/embryo/binary/tfs/Sox9.bin")
//	for _, e := range entries {
//	    fmt.Println(ids[e.Position], e.Value)
//	}
//
// # Package Structure
//
// This package provides top-level wrappers around the convert and encoding
// packages. Use convert directly for full control over configuration.
package cellbin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arloliu/cellbin/convert"
	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/format"
	"github.com/arloliu/cellbin/internal/hash"
	"github.com/arloliu/cellbin/metadata"
)

// Point is a decoded coordinate pair.
type Point = encoding.Point

// Entry is a decoded sparse feature observation.
type Entry = encoding.Entry

// Convert converts the dataset in dataDir with the given options.
func Convert(ctx context.Context, dataDir string, opts ...convert.Option) (*convert.Report, error) {
	cfg, err := convert.NewConfig(dataDir, opts...)
	if err != nil {
		return nil, err
	}

	return convert.Run(ctx, cfg)
}

// LoadStrings decodes a string column file such as cell_ids.bin.
func LoadStrings(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return encoding.NewVarStringDecoder(endian.GetLittleEndianEngine()).Decode(data)
}

// LoadCoordinates decodes coordinates.bin.
func LoadCoordinates(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return encoding.NewCoordinateDecoder(endian.GetLittleEndianEngine()).Decode(data)
}

// LoadFeature decodes a sparse feature file.
func LoadFeature(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return encoding.NewSparseDecoder(endian.GetLittleEndianEngine()).Decode(data)
}

// LoadMetadata reads metadata.json.
func LoadMetadata(path string) (metadata.Record, error) {
	return metadata.Read(path)
}

// Digest returns the xxHash64 digest of every .bin file below binaryDir,
// keyed by slash-separated path relative to binaryDir. Two conversions of
// the same input produce equal digests.
func Digest(binaryDir string) (map[string]uint64, error) {
	digests := make(map[string]uint64)
	err := filepath.WalkDir(binaryDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), format.FeatureSuffix) {
			return nil
		}

		sum, err := hash.File(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(binaryDir, path)
		if err != nil {
			return err
		}
		digests[filepath.ToSlash(rel)] = sum

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("digesting %s: %w", binaryDir, err)
	}

	return digests, nil
}

// Inspection is a decoded preview of a binary output file.
type Inspection struct {
	Path  string
	Kind  format.PayloadKind
	Count int
	// Rows holds up to the requested number of formatted records.
	Rows []string
}

// Inspect decodes the binary file at path, inferring its layout from its
// name and location, and formats up to limit records.
func Inspect(path string, limit int) (Inspection, error) {
	in := Inspection{Path: path, Kind: format.KindOf(path)}

	var rows []string
	switch in.Kind {
	case format.KindStrings:
		texts, err := LoadStrings(path)
		if err != nil {
			return in, err
		}
		in.Count = len(texts)
		for i, s := range texts[:preview(limit, len(texts))] {
			rows = append(rows, fmt.Sprintf("%d\t%q", i, s))
		}
	case format.KindCoordinates:
		points, err := LoadCoordinates(path)
		if err != nil {
			return in, err
		}
		in.Count = len(points)
		for i, p := range points[:preview(limit, len(points))] {
			rows = append(rows, fmt.Sprintf("%d\t%g\t%g", i, p.X, p.Y))
		}
	case format.KindSparse:
		entries, err := LoadFeature(path)
		if err != nil {
			return in, err
		}
		in.Count = len(entries)
		for _, e := range entries[:preview(limit, len(entries))] {
			rows = append(rows, fmt.Sprintf("%d\t%g", e.Position, e.Value))
		}
	default:
		return in, fmt.Errorf("%w: %s", errs.ErrUnknownPayload, path)
	}
	in.Rows = rows

	return in, nil
}

func preview(limit, n int) int {
	return max(0, min(limit, n))
}
