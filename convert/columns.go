package convert

import (
	"fmt"
	"math"

	"github.com/arloliu/cellbin/encoding"
	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/table"
)

// Coordinate column names tried before falling back to positions.
const (
	ColumnX = "x"
	ColumnY = "y"
)

// CoordinateColumns are the resolved header positions of the x and y columns.
type CoordinateColumns struct {
	X, Y    int
	ByName  bool
	XHeader string
	YHeader string
}

// ColumnResolutionError reports a coordinate table whose x/y columns could be
// found neither by name nor by position.
type ColumnResolutionError struct {
	Path   string
	Header table.Header
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("%s: %s has %d columns and no %q/%q pair",
		errs.ErrUnresolvableColumns, e.Path, len(e.Header), ColumnX, ColumnY)
}

func (e *ColumnResolutionError) Unwrap() error {
	return errs.ErrUnresolvableColumns
}

// ResolveCoordinateColumns locates the coordinate columns of header.
//
// Columns named x and y win when both are present. Otherwise the second and
// third columns are used, the first being the identifier.
func ResolveCoordinateColumns(path string, header table.Header) (CoordinateColumns, error) {
	if x, y := header.Index(ColumnX), header.Index(ColumnY); x >= 0 && y >= 0 {
		return CoordinateColumns{X: x, Y: y, ByName: true, XHeader: ColumnX, YHeader: ColumnY}, nil
	}

	if len(header) >= 3 {
		return CoordinateColumns{X: 1, Y: 2, XHeader: header[1], YHeader: header[2]}, nil
	}

	return CoordinateColumns{}, &ColumnResolutionError{Path: path, Header: header}
}

// ParsePoints converts raw x/y cells into points.
//
// Missing cells become NaN since every row must keep its position. A cell
// that is neither missing nor numeric is an error.
func ParsePoints(xs, ys []string) ([]encoding.Point, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x values and %d y values", errs.ErrInvalidConfig, len(xs), len(ys))
	}

	points := make([]encoding.Point, len(xs))
	for i := range xs {
		x, err := parseCoordinate(xs[i])
		if err != nil {
			return nil, fmt.Errorf("row %d x: %w", i, err)
		}
		y, err := parseCoordinate(ys[i])
		if err != nil {
			return nil, fmt.Errorf("row %d y: %w", i, err)
		}
		points[i] = encoding.Point{X: x, Y: y}
	}

	return points, nil
}

func parseCoordinate(cell string) (float32, error) {
	v, missing, err := table.ParseFloat(cell)
	if err != nil {
		return 0, err
	}
	if missing {
		return float32(math.NaN()), nil
	}

	return float32(v), nil
}
