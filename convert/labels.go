package convert

import (
	"fmt"

	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/index"
	"github.com/arloliu/cellbin/table"
)

// LabelMap maps canonical identifiers to a categorical label.
type LabelMap map[string]string

// LoadLabelMap reads an auxiliary table whose first two columns are the
// identifier and the label, whatever their header names. A later row for the
// same identifier replaces an earlier one.
func LoadLabelMap(path string) (LabelMap, error) {
	header, err := table.ReadHeader(path)
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: %s needs an identifier and a label column, has %d",
			errs.ErrColumnNotFound, path, len(header))
	}

	t, err := table.ReadColumns(path, []int{0, 1})
	if err != nil {
		return nil, err
	}

	ids, labels := t.Columns[0], t.Columns[1]
	m := make(LabelMap, len(ids))
	for i, raw := range ids {
		m[index.Canonical(raw)] = labels[i]
	}

	return m, nil
}

// Resolve returns one label per identifier in ids, "" where m has none.
// ids must already be canonical.
func (m LabelMap) Resolve(ids []string) []string {
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = m[id]
	}

	return labels
}
