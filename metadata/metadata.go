// Package metadata describes a converted binary dataset.
//
// The Record is written once per run as metadata.json next to the binary
// outputs. It merges the feature inventory of this converter (transcription
// factors) with the inventory handed off by the companion gene conversion.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/arloliu/cellbin/format"
)

// Inventory lists the features a conversion discovered in its source header.
//
// FeatureList holds every discovered feature name, whether or not any
// observation of it qualified for an output file.
type Inventory struct {
	TotalFeatures     int      `json:"total_features"`
	FeaturesProcessed int      `json:"features_processed"`
	FeatureList       []string `json:"feature_list"`
}

// EmptyInventory returns the inventory of a feature class with no source.
func EmptyInventory() Inventory {
	return Inventory{FeatureList: []string{}}
}

// NewInventory returns an inventory declaring every name in features.
func NewInventory(features []string) Inventory {
	return Inventory{
		TotalFeatures: len(features),
		FeatureList:   append([]string{}, features...),
	}
}

// ClassSummary is the per feature class section of the Record.
type ClassSummary struct {
	Total    int      `json:"total"`
	Features []string `json:"features"`
}

// Record is the metadata.json document.
type Record struct {
	Version     string       `json:"version"`
	Format      string       `json:"format"`
	TotalCells  int          `json:"total_cells"`
	Genes       ClassSummary `json:"genes"`
	TFs         ClassSummary `json:"tfs"`
	LastUpdated string       `json:"last_updated"`
}

// NewRecord assembles the Record for a run finished at now.
func NewRecord(totalCells int, genes, tfs Inventory, now time.Time) Record {
	return Record{
		Version:     format.Version,
		Format:      format.Format,
		TotalCells:  totalCells,
		Genes:       summarize(genes),
		TFs:         summarize(tfs),
		LastUpdated: now.Format(format.TimestampLayout),
	}
}

func summarize(inv Inventory) ClassSummary {
	features := inv.FeatureList
	if features == nil {
		features = []string{}
	}

	return ClassSummary{Total: inv.TotalFeatures, Features: features}
}

// Marshal renders r as two-space indented JSON with a trailing newline.
func (r Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}

	return buf.Bytes(), nil
}

// Write stores r at path, replacing any previous document.
func Write(path string, r Record) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Read loads a Record from path.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	return r, nil
}
