package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arloliu/cellbin/format"
	"github.com/arloliu/cellbin/internal/hash"
)

// outputWriter writes encoded payloads below the binary directory and keeps
// the digest of everything it wrote, keyed by slash-separated relative path.
type outputWriter struct {
	root    string
	digests map[string]uint64
}

func newOutputWriter(root string) *outputWriter {
	return &outputWriter{root: root, digests: make(map[string]uint64)}
}

func (w *outputWriter) prepare() error {
	for _, dir := range []string{format.BaseDir, format.FeatureDir} {
		if err := os.MkdirAll(filepath.Join(w.root, dir), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	return nil
}

func (w *outputWriter) write(rel string, data []byte) error {
	path := filepath.Join(w.root, rel)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("writing %s: %w", path, err)
	}
	w.digests[filepath.ToSlash(rel)] = hash.Sum(data)

	return nil
}

// clearFeatures removes feature files left by a previous run.
func (w *outputWriter) clearFeatures() (int, error) {
	stale, err := filepath.Glob(filepath.Join(w.root, format.FeatureDir, "*"+format.FeatureSuffix))
	if err != nil {
		return 0, err
	}

	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return 0, fmt.Errorf("removing stale feature file: %w", err)
		}
	}

	return len(stale), nil
}

func basePath(name string) string {
	return filepath.Join(format.BaseDir, name)
}

func featurePath(feature string) string {
	return filepath.Join(format.FeatureDir, feature+format.FeatureSuffix)
}
