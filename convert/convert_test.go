package convert

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/endian"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/internal/hash"
	"github.com/arloliu/cellbin/metadata"
)

const (
	fixtureCoordinates = "cell_id,x,y\nA,1.0,2.0\nB,3.5,-4.25\nC,,6\n"
	fixtureSections    = "cell,section\nA,S1\nC,S2\n"
	fixtureCellTypes   = "cell,celltype\nB,T cell\n"
	fixtureTFs         = "cell,tfX,tfY\nA,0,0\nB,NaN,0\nC,5.0,\n"
)

func writeDataset(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)
	writeFixture(t, dir, "section.csv", fixtureSections)
	writeFixture(t, dir, "celltype.csv", fixtureCellTypes)
	writeFixture(t, dir, "tf_activity.csv", fixtureTFs)

	return dir
}

func runDataset(t *testing.T, dir string, opts ...Option) (*Config, *Report) {
	t.Helper()

	cfg := testConfig(t, dir, opts...)
	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	return cfg, report
}

func TestRun_Dataset(t *testing.T) {
	dir := writeDataset(t)
	cfg, report := runDataset(t, dir)

	ids := decodeStrings(t, readOutput(t, cfg, "base/cell_ids.bin"))
	require.Equal(t, []string{"A", "B", "C"}, ids)

	require.Equal(t, []string{"S1", "", "S2"}, decodeStrings(t, readOutput(t, cfg, "base/sections.bin")))
	require.Equal(t, []string{"", "T cell", ""}, decodeStrings(t, readOutput(t, cfg, "base/celltypes.bin")))

	points := decodePoints(t, readOutput(t, cfg, "base/coordinates.bin"))
	require.Len(t, points, 3)
	require.Equal(t, encoding.Point{X: 1, Y: 2}, points[0])
	require.Equal(t, encoding.Point{X: 3.5, Y: -4.25}, points[1])
	require.True(t, math.IsNaN(float64(points[2].X)))
	require.Equal(t, float32(6), points[2].Y)

	entries := decodeEntries(t, readOutput(t, cfg, "tfs/tfX.bin"))
	require.Equal(t, []encoding.Entry{{Position: 2, Value: 5}}, entries)
	require.NoFileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "tfY.bin"))

	require.Equal(t, 3, report.TotalCells)
	require.Equal(t, 3, report.UniqueCells)
	require.Empty(t, report.Duplicates)
	require.True(t, report.CoordinateColumns.ByName)
	require.Equal(t, LabelReport{Source: filepath.Join(dir, "section.csv"), Found: true, Labelled: 2}, report.Sections)
	require.Equal(t, 1, report.CellTypes.Labelled)

	require.Equal(t, "tfs", report.TFs.Class)
	require.Equal(t, metadata.Inventory{TotalFeatures: 2, FeaturesProcessed: 2, FeatureList: []string{"tfX", "tfY"}}, report.TFs.Inventory)
	require.Equal(t, 1, report.TFs.Written)
	require.Zero(t, report.TFs.FailedBatches)
	require.Equal(t, uint64(1), report.TFs.CoveredCells)
	require.Equal(t, []FeatureStat{{Name: "tfX", Entries: 1, Cells: 1}}, report.TFs.Features)

	keys := make([]string, 0, len(report.Digests))
	for k := range report.Digests {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	require.Equal(t, []string{
		"base/cell_ids.bin",
		"base/celltypes.bin",
		"base/coordinates.bin",
		"base/sections.bin",
		"tfs/tfX.bin",
	}, keys)
}

func TestRun_Metadata(t *testing.T) {
	dir := writeDataset(t)
	cfg, report := runDataset(t, dir)

	record, err := metadata.Read(filepath.Join(cfg.BinaryDir, "metadata.json"))
	require.NoError(t, err)
	require.Equal(t, report.Metadata, record)

	require.Equal(t, "1.0", record.Version)
	require.Equal(t, "sparse_binary", record.Format)
	require.Equal(t, 3, record.TotalCells)
	require.Equal(t, metadata.ClassSummary{Total: 0, Features: []string{}}, record.Genes)
	require.Equal(t, metadata.ClassSummary{Total: 2, Features: []string{"tfX", "tfY"}}, record.TFs)
	require.Equal(t, fixedNow.Format("2006-01-02T15:04:05.000000"), record.LastUpdated)
	require.False(t, report.GenesHandedOff)
}

func TestRun_DenseCountsMatch(t *testing.T) {
	dir := writeDataset(t)
	cfg, report := runDataset(t, dir)

	le := endian.GetLittleEndianEngine()
	for _, rel := range []string{"base/cell_ids.bin", "base/sections.bin", "base/celltypes.bin"} {
		n, err := encoding.NewVarStringDecoder(le).Count(readOutput(t, cfg, rel))
		require.NoError(t, err)
		require.Equal(t, report.TotalCells, n, rel)
	}

	n, err := encoding.NewCoordinateDecoder(le).Count(readOutput(t, cfg, "base/coordinates.bin"))
	require.NoError(t, err)
	require.Equal(t, report.TotalCells, n)
}

func TestRun_ReencodeIsIdentical(t *testing.T) {
	dir := writeDataset(t)
	cfg, _ := runDataset(t, dir)
	le := endian.GetLittleEndianEngine()

	for _, rel := range []string{"base/cell_ids.bin", "base/sections.bin", "base/celltypes.bin"} {
		data := readOutput(t, cfg, rel)
		again, err := encoding.EncodeStrings(decodeStrings(t, data), le)
		require.NoError(t, err)
		require.Equal(t, data, again, rel)
	}

	coords := readOutput(t, cfg, "base/coordinates.bin")
	again, err := encoding.EncodeCoordinates(decodePoints(t, coords), le)
	require.NoError(t, err)
	require.Equal(t, coords, again)

	sparse := readOutput(t, cfg, "tfs/tfX.bin")
	again, err = encoding.EncodeSparse(decodeEntries(t, sparse), le)
	require.NoError(t, err)
	require.Equal(t, sparse, again)
}

func TestRun_Idempotent(t *testing.T) {
	dir := writeDataset(t)
	_, first := runDataset(t, dir)
	cfg, second := runDataset(t, dir)

	require.Equal(t, first.Digests, second.Digests)
	for rel, digest := range second.Digests {
		onDisk, err := hash.File(filepath.Join(cfg.BinaryDir, filepath.FromSlash(rel)))
		require.NoError(t, err)
		require.Equal(t, digest, onDisk, rel)
	}
}

func TestRun_FeaturePositionsInRange(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\nc0,0,0\nc1,1,1\nc2,2,2\nc3,3,3\n")
	writeFixture(t, dir, "tf_activity.csv", "id,f1,f2,f3\nc3,1,0,0\nghost,2,2,0\nc0,0,0.5,0\nc1,-1,,0\n")

	cfg, report := runDataset(t, dir)

	files, err := filepath.Glob(filepath.Join(cfg.BinaryDir, "tfs", "*.bin"))
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, path := range files {
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		entries := decodeEntries(t, data)
		require.NotEmpty(t, entries, path)
		for _, e := range entries {
			require.Less(t, int(e.Position), report.TotalCells)
		}
	}

	require.Equal(t, []encoding.Entry{{Position: 3, Value: 1}, {Position: 1, Value: -1}},
		decodeEntries(t, readOutput(t, cfg, "tfs/f1.bin")))
	require.Equal(t, []encoding.Entry{{Position: 0, Value: 0.5}},
		decodeEntries(t, readOutput(t, cfg, "tfs/f2.bin")))
	require.Equal(t, []string{"f1", "f2", "f3"}, report.Metadata.TFs.Features)
	require.Equal(t, []uint32{0, 1, 3}, report.TFs.Coverage.ToArray())
}

func TestRun_PositionalCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "barcode,px,py,extra\nA,1,2,z\nB,3,4,z\n")

	cfg, report := runDataset(t, dir)

	require.False(t, report.CoordinateColumns.ByName)
	require.Equal(t, []encoding.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, decodePoints(t, readOutput(t, cfg, "base/coordinates.bin")))
}

func TestRun_UnresolvableCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "barcode,x\nA,1\n")

	_, err := Run(context.Background(), testConfig(t, dir))
	require.ErrorIs(t, err, errs.ErrUnresolvableColumns)

	var resErr *ColumnResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestRun_InvalidCoordinate(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\nA,1,2\nB,east,4\n")

	_, err := Run(context.Background(), testConfig(t, dir))
	require.ErrorIs(t, err, errs.ErrInvalidNumber)
}

func TestRun_MissingCoordinateTable(t *testing.T) {
	_, err := Run(context.Background(), testConfig(t, t.TempDir()))
	require.ErrorIs(t, err, errs.ErrMissingSource)
}

func TestRun_NilConfig(t *testing.T) {
	_, err := Run(context.Background(), nil)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestRun_MissingAuxiliaryTables(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)

	cfg, report := runDataset(t, dir)

	require.Equal(t, []string{"", "", ""}, decodeStrings(t, readOutput(t, cfg, "base/sections.bin")))
	require.Equal(t, []string{"", "", ""}, decodeStrings(t, readOutput(t, cfg, "base/celltypes.bin")))
	require.False(t, report.Sections.Found)
	require.False(t, report.CellTypes.Found)

	require.Equal(t, metadata.EmptyInventory(), report.TFs.Inventory)
	require.Equal(t, metadata.ClassSummary{Total: 0, Features: []string{}}, report.Metadata.TFs)
}

func TestRun_MalformedLabelTable(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)
	writeFixture(t, dir, "section.csv", "only_one_column\nA\n")

	cfg, report := runDataset(t, dir)

	require.Equal(t, []string{"", "", ""}, decodeStrings(t, readOutput(t, cfg, "base/sections.bin")))
	require.False(t, report.Sections.Found)
	require.Equal(t, filepath.Join(dir, "section.csv"), report.Sections.Source)
}

func TestRun_EmptyFeatureTable(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)
	writeFixture(t, dir, "tf_activity.csv", "")

	_, report := runDataset(t, dir)
	require.Equal(t, metadata.EmptyInventory(), report.TFs.Inventory)
}

func TestRun_BatchFailure(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)
	writeFixture(t, dir, "tf_activity.csv", "cell,f0,f1,bad,f3,f4\nA,1,0,x,0,1\nB,0,2,1,0,2\nC,0,0,1,3,3\n")

	cfg, report := runDataset(t, dir, WithChunkSize(2))

	require.Len(t, report.TFs.Batches, 3)
	require.True(t, report.TFs.Batches[0].OK())
	require.False(t, report.TFs.Batches[1].OK())
	require.ErrorIs(t, report.TFs.Batches[1].Err, errs.ErrInvalidNumber)
	require.True(t, report.TFs.Batches[2].OK())
	require.Equal(t, 1, report.TFs.FailedBatches)

	inv := report.TFs.Inventory
	require.Equal(t, 5, inv.TotalFeatures)
	require.Equal(t, 3, inv.FeaturesProcessed)
	require.Equal(t, []string{"f0", "f1", "bad", "f3", "f4"}, inv.FeatureList)

	require.FileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "f0.bin"))
	require.FileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "f1.bin"))
	require.NoFileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "bad.bin"))
	require.NoFileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "f3.bin"))
	require.FileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "f4.bin"))
	require.Equal(t, 5, report.Metadata.TFs.Total)
}

func TestRun_DuplicateFeatureNames(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", fixtureCoordinates)
	writeFixture(t, dir, "tf_activity.csv", "cell,tfX,tfX\nA,1,0\nB,0,2\n")

	cfg, report := runDataset(t, dir)

	require.Equal(t, []encoding.Entry{{Position: 0, Value: 1}}, decodeEntries(t, readOutput(t, cfg, "tfs/tfX.bin")))
	require.Equal(t, []encoding.Entry{{Position: 1, Value: 2}}, decodeEntries(t, readOutput(t, cfg, "tfs/tfX.1.bin")))

	require.Equal(t, 2, report.TFs.Written)
	require.Contains(t, report.Digests, "tfs/tfX.bin")
	require.Contains(t, report.Digests, "tfs/tfX.1.bin")
	require.Equal(t, metadata.ClassSummary{Total: 2, Features: []string{"tfX", "tfX.1"}}, report.Metadata.TFs)
	require.Equal(t, []uint32{0, 1}, report.TFs.Coverage.ToArray())
}

func TestRun_DuplicateLastWins(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\nA,1,1\nB,2,2\nA,3,3\n")
	writeFixture(t, dir, "section.csv", "id,section\nA,S1\n")
	writeFixture(t, dir, "tf_activity.csv", "id,tf\nA,7\n")

	cfg, report := runDataset(t, dir)

	require.Equal(t, 3, report.TotalCells)
	require.Equal(t, 2, report.UniqueCells)
	require.Equal(t, []index.Duplicate{{ID: "A", Positions: []int{0, 2}}}, report.Duplicates)
	require.Equal(t, []string{"A", "B", "A"}, decodeStrings(t, readOutput(t, cfg, "base/cell_ids.bin")))
	require.Equal(t, []string{"S1", "", "S1"}, decodeStrings(t, readOutput(t, cfg, "base/sections.bin")))
	require.Equal(t, []encoding.Entry{{Position: 2, Value: 7}}, decodeEntries(t, readOutput(t, cfg, "tfs/tf.bin")))
	require.Equal(t, 3, report.Metadata.TotalCells)
}

func TestRun_DuplicateFirstWins(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\nA,1,1\nB,2,2\nA,3,3\n")
	writeFixture(t, dir, "tf_activity.csv", "id,tf\nA,7\n")

	cfg, _ := runDataset(t, dir, WithDuplicatePolicy(index.FirstWins))

	require.Equal(t, []encoding.Entry{{Position: 0, Value: 7}}, decodeEntries(t, readOutput(t, cfg, "tfs/tf.bin")))
}

func TestRun_DuplicateReject(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\nA,1,1\nB,2,2\nA,3,3\n")

	_, err := Run(context.Background(), testConfig(t, dir, WithDuplicatePolicy(index.Reject)))
	require.ErrorIs(t, err, errs.ErrDuplicateIdentifier)
	require.NoFileExists(t, filepath.Join(dir, "binary", "base", "cell_ids.bin"))
}

func TestRun_CanonicalIdentifiers(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "coordinates.csv", "id,x,y\n1,0,0\n2,0,0\n3,0,0\n")
	writeFixture(t, dir, "section.csv", "id,section\n001, S1\n 3 ,S3\n")
	writeFixture(t, dir, "tf_activity.csv", "id,tf\n02,4\n")

	cfg, _ := runDataset(t, dir)

	require.Equal(t, []string{" S1", "", "S3"}, decodeStrings(t, readOutput(t, cfg, "base/sections.bin")))
	require.Equal(t, []encoding.Entry{{Position: 1, Value: 4}}, decodeEntries(t, readOutput(t, cfg, "tfs/tf.bin")))
}

func TestRun_CompressedSources(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, "coordinates.csv.gz"), fixtureCoordinates)
	writeGzip(t, filepath.Join(dir, "section.csv.gz"), fixtureSections)
	writeFixture(t, dir, "celltype.csv", fixtureCellTypes)
	writeGzip(t, filepath.Join(dir, "tf_activity.csv.gz"), fixtureTFs)

	_, compressed := runDataset(t, dir)
	_, plain := runDataset(t, writeDataset(t))

	require.Equal(t, plain.Digests, compressed.Digests)
	require.Equal(t, filepath.Join(dir, "coordinates.csv.gz"), compressed.Sources.Coordinates)
	require.Equal(t, filepath.Join(dir, "tf_activity.csv.gz"), compressed.Sources.TFActivity)
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRun_StaleFeatureFilesRemoved(t *testing.T) {
	dir := writeDataset(t)
	writeFixture(t, dir, "binary/tfs/tfY.bin", "stale")
	writeFixture(t, dir, "binary/tfs/old.bin", "stale")

	cfg, report := runDataset(t, dir)

	require.Equal(t, 2, report.StaleRemoved)
	require.NoFileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "tfY.bin"))
	require.NoFileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "old.bin"))
	require.FileExists(t, filepath.Join(cfg.BinaryDir, "tfs", "tfX.bin"))
}

func TestRun_GeneHandoff(t *testing.T) {
	dir := writeDataset(t)
	handoffPath := filepath.Join(dir, "binary", "gene_metadata_temp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(handoffPath), 0o755))
	genes := metadata.Inventory{TotalFeatures: 3, FeaturesProcessed: 2, FeatureList: []string{"Sox9", "Pax3", "Msx1"}}
	require.NoError(t, metadata.WriteFileHandoff(handoffPath, genes))

	_, report := runDataset(t, dir)

	require.True(t, report.GenesHandedOff)
	require.Equal(t, genes, report.Genes)
	require.Equal(t, metadata.ClassSummary{Total: 3, Features: []string{"Sox9", "Pax3", "Msx1"}}, report.Metadata.Genes)
	require.NoFileExists(t, handoffPath)

	_, again := runDataset(t, dir)
	require.False(t, again.GenesHandedOff)
	require.Equal(t, 0, again.Metadata.Genes.Total)
}

func TestRun_MalformedGeneHandoff(t *testing.T) {
	dir := writeDataset(t)
	handoffPath := writeFixture(t, dir, "binary/gene_metadata_temp.json", "{not json")

	_, report := runDataset(t, dir)

	require.False(t, report.GenesHandedOff)
	require.Equal(t, metadata.ClassSummary{Total: 0, Features: []string{}}, report.Metadata.Genes)
	require.FileExists(t, handoffPath)
}

func TestRun_StaticHandoff(t *testing.T) {
	dir := writeDataset(t)
	genes := metadata.NewInventory([]string{"g1"})

	_, report := runDataset(t, dir, WithHandoff(metadata.NewStaticHandoff(genes)))
	require.Equal(t, metadata.ClassSummary{Total: 1, Features: []string{"g1"}}, report.Metadata.Genes)
}

func TestRun_Cancelled(t *testing.T) {
	dir := writeDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, testConfig(t, dir))
	require.ErrorIs(t, err, context.Canceled)
	require.NoDirExists(t, filepath.Join(dir, "binary"))
}

func TestRun_CustomInputNames(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "xy.csv", fixtureCoordinates)
	writeFixture(t, dir, "tf.csv", fixtureTFs)

	cfg, report := runDataset(t, dir,
		WithBinaryDir(filepath.Join(dir, "out")),
		WithInputNames(InputNames{Coordinates: "xy.csv", TFActivity: "tf.csv"}),
	)

	require.Equal(t, filepath.Join(dir, "out"), cfg.BinaryDir)
	require.FileExists(t, filepath.Join(dir, "out", "tfs", "tfX.bin"))
	require.FileExists(t, filepath.Join(dir, "out", "metadata.json"))
	require.False(t, report.Sections.Found)
}
