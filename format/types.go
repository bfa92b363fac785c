package format

import (
	"path/filepath"
	"strings"
)

// Format tag written into metadata.json.
const (
	Version = "1.0"
	Format  = "sparse_binary"
)

// Output layout relative to the binary directory.
const (
	BaseDir       = "base"
	FeatureDir    = "tfs"
	CellIDsFile   = "cell_ids.bin"
	SectionsFile  = "sections.bin"
	CellTypesFile = "celltypes.bin"
	CoordsFile    = "coordinates.bin"
	MetadataFile  = "metadata.json"
	FeatureSuffix = ".bin"

	// GeneHandoffFile is produced by the companion gene conversion and
	// consumed (then removed) by the metadata step.
	GeneHandoffFile = "gene_metadata_temp.json"
)

// Default source table names relative to the data directory.
const (
	CoordinatesTable = "coordinates.csv"
	SectionTable     = "section.csv"
	CellTypeTable    = "celltype.csv"
	TFActivityTable  = "tf_activity.csv"
	BinaryDirName    = "binary"
)

// DefaultChunkSize is the number of feature columns loaded per batch.
const DefaultChunkSize = 1000

// TimestampLayout is the layout of the metadata last_updated field.
const TimestampLayout = "2006-01-02T15:04:05.000000"

type (
	// PayloadKind identifies the layout of a binary output file.
	PayloadKind uint8

	// CompressionType identifies how a source table is compressed on disk.
	CompressionType uint8
)

const (
	KindUnknown     PayloadKind = 0x0
	KindStrings     PayloadKind = 0x1 // KindStrings is [u32 count][(u32 len, bytes)...].
	KindCoordinates PayloadKind = 0x2 // KindCoordinates is [u32 count][(f32 x, f32 y)...].
	KindSparse      PayloadKind = 0x3 // KindSparse is [u32 count][(u32 pos, f32 value)...].
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents a plain text table.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents a Zstandard stream.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents an S2 stream.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents an LZ4 frame stream.
	CompressionGzip CompressionType = 0x5 // CompressionGzip represents a gzip stream.
)

// SourceSuffixes lists the compressed variants tried for a source table, in order.
var SourceSuffixes = []struct {
	Suffix      string
	Compression CompressionType
}{
	{"", CompressionNone},
	{".gz", CompressionGzip},
	{".zst", CompressionZstd},
	{".s2", CompressionS2},
	{".lz4", CompressionLZ4},
}

func (k PayloadKind) String() string {
	switch k {
	case KindStrings:
		return "Strings"
	case KindCoordinates:
		return "Coordinates"
	case KindSparse:
		return "Sparse"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionGzip:
		return "Gzip"
	default:
		return "Unknown"
	}
}

// KindOf infers the payload layout of an output file from its path.
//
// Every file inside the feature directory is sparse, whatever its name.
// Elsewhere coordinates.bin holds coordinate pairs and the remaining known
// dense files hold strings.
func KindOf(path string) PayloadKind {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, FeatureSuffix) {
		return KindUnknown
	}

	if filepath.Base(filepath.Dir(path)) == FeatureDir {
		return KindSparse
	}

	switch name {
	case CoordsFile:
		return KindCoordinates
	case CellIDsFile, SectionsFile, CellTypesFile:
		return KindStrings
	default:
		return KindUnknown
	}
}

// CompressionOf infers the compression of a source table from its suffix.
func CompressionOf(path string) CompressionType {
	for _, s := range SourceSuffixes[1:] {
		if strings.HasSuffix(path, s.Suffix) {
			return s.Compression
		}
	}

	return CompressionNone
}
