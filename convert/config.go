package convert

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/format"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/internal/options"
	"github.com/arloliu/cellbin/metadata"
)

// InputNames are the source table file names, relative to the data directory.
// Each may also exist with a compressed suffix (see package compress).
type InputNames struct {
	Coordinates string
	Sections    string
	CellTypes   string
	TFActivity  string
}

// DefaultInputNames returns the conventional source table names.
func DefaultInputNames() InputNames {
	return InputNames{
		Coordinates: format.CoordinatesTable,
		Sections:    format.SectionTable,
		CellTypes:   format.CellTypeTable,
		TFActivity:  format.TFActivityTable,
	}
}

// Config holds everything a conversion run needs.
type Config struct {
	// DataDir holds the source tables.
	DataDir string
	// BinaryDir receives the outputs. Defaults to DataDir/binary.
	BinaryDir string
	// Inputs names the source tables inside DataDir.
	Inputs InputNames
	// ChunkSize is the number of feature columns loaded per batch.
	ChunkSize int
	// DuplicatePolicy resolves identifiers repeated in the coordinate table.
	DuplicatePolicy index.DuplicatePolicy
	// Logger receives progress and diagnostics.
	Logger *Logger
	// Clock stamps metadata.json.
	Clock func() time.Time
	// Handoff supplies the gene inventory. Defaults to a FileHandoff reading
	// BinaryDir/gene_metadata_temp.json.
	Handoff metadata.Handoff
}

// Option configures a Config.
type Option = options.Option[*Config]

// NewConfig returns the configuration for converting dataDir.
func NewConfig(dataDir string, opts ...Option) (*Config, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required", errs.ErrInvalidConfig)
	}

	cfg := &Config{
		DataDir:         dataDir,
		Inputs:          DefaultInputNames(),
		ChunkSize:       format.DefaultChunkSize,
		DuplicatePolicy: index.LastWins,
		Clock:           time.Now,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.BinaryDir == "" {
		cfg.BinaryDir = filepath.Join(dataDir, format.BinaryDirName)
	}
	if cfg.Logger == nil {
		cfg.Logger = NewLogger(nil)
	}
	if cfg.Handoff == nil {
		cfg.Handoff = metadata.NewFileHandoff(filepath.Join(cfg.BinaryDir, format.GeneHandoffFile))
	}

	return cfg, nil
}

// WithBinaryDir sets the output directory.
func WithBinaryDir(dir string) Option {
	return options.New(func(c *Config) error {
		if dir == "" {
			return fmt.Errorf("%w: binary directory cannot be empty", errs.ErrInvalidConfig)
		}
		c.BinaryDir = dir

		return nil
	})
}

// WithInputNames overrides the source table names.
func WithInputNames(names InputNames) Option {
	return options.New(func(c *Config) error {
		if names.Coordinates == "" {
			return fmt.Errorf("%w: coordinate table name cannot be empty", errs.ErrInvalidConfig)
		}
		c.Inputs = names

		return nil
	})
}

// WithChunkSize sets the number of feature columns loaded per batch.
func WithChunkSize(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", errs.ErrInvalidConfig, n)
		}
		c.ChunkSize = n

		return nil
	})
}

// WithDuplicatePolicy sets how repeated coordinate identifiers are resolved.
func WithDuplicatePolicy(policy index.DuplicatePolicy) Option {
	return options.New(func(c *Config) error {
		if policy > index.Reject {
			return fmt.Errorf("%w: duplicate policy %d", errs.ErrInvalidConfig, policy)
		}
		c.DuplicatePolicy = policy

		return nil
	})
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) Option {
	return options.NoError(func(c *Config) {
		c.Logger = logger
	})
}

// WithClock sets the clock used to stamp metadata.json.
func WithClock(clock func() time.Time) Option {
	return options.New(func(c *Config) error {
		if clock == nil {
			return fmt.Errorf("%w: clock cannot be nil", errs.ErrInvalidConfig)
		}
		c.Clock = clock

		return nil
	})
}

// WithHandoff sets the source of the gene inventory.
func WithHandoff(h metadata.Handoff) Option {
	return options.NoError(func(c *Config) {
		c.Handoff = h
	})
}

// sourcePath returns the location of a source table without compression suffix.
func (c *Config) sourcePath(name string) string {
	return filepath.Join(c.DataDir, name)
}
