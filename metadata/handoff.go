package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Handoff supplies the inventory of a feature class converted by another
// process. It is read at most once: a successful Take consumes the source.
type Handoff interface {
	// Take returns the handed-off inventory. ok is false when nothing was
	// handed off. A non-nil error with ok == false means the source exists
	// but could not be used and was left in place.
	Take() (inv Inventory, ok bool, err error)
}

// FileHandoff reads the JSON document left by the companion gene conversion
// and deletes it after a successful read.
type FileHandoff struct {
	path string
}

var _ Handoff = (*FileHandoff)(nil)

// NewFileHandoff creates a Handoff reading the document at path.
func NewFileHandoff(path string) *FileHandoff {
	return &FileHandoff{path: path}
}

// Path returns the location of the hand-off document.
func (h *FileHandoff) Path() string {
	return h.path
}

// Take reads and removes the hand-off document.
//
// A missing document returns ok == false and no error. An unreadable or
// malformed document is left on disk and reported as an error. If the
// document was read but could not be removed, the inventory is returned
// with ok == true together with the removal error.
func (h *FileHandoff) Take() (Inventory, bool, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return EmptyInventory(), false, nil
	}
	if err != nil {
		return EmptyInventory(), false, fmt.Errorf("reading hand-off %s: %w", h.path, err)
	}

	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return EmptyInventory(), false, fmt.Errorf("decoding hand-off %s: %w", h.path, err)
	}
	if inv.FeatureList == nil {
		inv.FeatureList = []string{}
	}

	if err := os.Remove(h.path); err != nil {
		return inv, true, fmt.Errorf("removing hand-off %s: %w", h.path, err)
	}

	return inv, true, nil
}

// WriteFileHandoff writes inv where a FileHandoff at path will find it.
// It is the producer side of the contract, used by the companion conversion.
func WriteFileHandoff(path string, inv Inventory) error {
	if inv.FeatureList == nil {
		inv.FeatureList = []string{}
	}

	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("encoding hand-off: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// StaticHandoff hands off an in-memory inventory once.
type StaticHandoff struct {
	inv   Inventory
	taken bool
}

var _ Handoff = (*StaticHandoff)(nil)

// NewStaticHandoff creates a Handoff that yields inv on the first Take.
func NewStaticHandoff(inv Inventory) *StaticHandoff {
	return &StaticHandoff{inv: inv}
}

// Take returns the inventory on the first call and nothing afterwards.
func (h *StaticHandoff) Take() (Inventory, bool, error) {
	if h.taken {
		return EmptyInventory(), false, nil
	}
	h.taken = true

	return h.inv, true, nil
}
