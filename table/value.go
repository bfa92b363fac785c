package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/cellbin/errs"
)

// missingTokens are the cell values read as "no observation".
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-nan": {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
}

// ParseFloat parses a numeric cell.
//
// It returns missing == true for empty cells, the usual NA spellings and any
// value that parses to NaN. A cell that is neither missing nor numeric
// returns an error wrapping errs.ErrInvalidNumber.
func ParseFloat(cell string) (value float64, missing bool, err error) {
	s := strings.TrimSpace(cell)
	if _, ok := missingTokens[s]; ok {
		return 0, true, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			// Out of float64 range parses to ±Inf, like other CSV readers.
			return v, false, nil
		}

		return 0, false, fmt.Errorf("%w: %q", errs.ErrInvalidNumber, cell)
	}
	if math.IsNaN(v) {
		return 0, true, nil
	}

	return v, false, nil
}
