// Package index builds the canonical entity ordering.
//
// The coordinate table defines one position per row, in file order. Every
// other source resolves its rows to those positions by identifier, so the
// index is built once per run and shared by all encoders.
//
// Identifiers are compared in canonical form (see Canonical). When the same
// identifier appears more than once, the DuplicatePolicy decides which
// position the lookup returns; the canonical sequence always keeps every row.
package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/cellbin/errs"
	"github.com/arloliu/cellbin/internal/options"
)

// DuplicatePolicy selects the lookup position of a repeated identifier.
type DuplicatePolicy uint8

const (
	// LastWins maps a repeated identifier to its last position.
	LastWins DuplicatePolicy = iota
	// FirstWins maps a repeated identifier to its first position.
	FirstWins
	// Reject fails the build with errs.ErrDuplicateIdentifier.
	Reject
)

func (p DuplicatePolicy) String() string {
	switch p {
	case LastWins:
		return "last-wins"
	case FirstWins:
		return "first-wins"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Option configures Build.
type Option = options.Option[*Index]

// WithDuplicatePolicy sets the duplicate identifier policy. LastWins is the default.
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return options.New(func(x *Index) error {
		if policy > Reject {
			return fmt.Errorf("%w: duplicate policy %d", errs.ErrInvalidConfig, policy)
		}
		x.policy = policy

		return nil
	})
}

// Index is the canonical entity ordering and its identifier lookup.
type Index struct {
	ids       []string
	positions map[string]int
	tracker   *tracker
	policy    DuplicatePolicy
}

// Canonical returns the comparison form of a raw identifier.
//
// Surrounding whitespace is trimmed and base-10 integers are re-formatted,
// so "007", "+7" and "7" are the same entity. Anything else is opaque.
func Canonical(raw string) string {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}

	return s
}

// Build creates the index from identifiers in canonical-table order.
//
// Build only fails for invalid options or when the Reject policy meets a
// repeated identifier; empty and malformed identifiers are accepted as-is.
func Build(raw []string, opts ...Option) (*Index, error) {
	x := &Index{
		ids:       make([]string, len(raw)),
		positions: make(map[string]int, len(raw)),
		tracker:   newTracker(),
	}
	if err := options.Apply(x, opts...); err != nil {
		return nil, err
	}

	for pos, r := range raw {
		id := Canonical(r)
		x.ids[pos] = id

		first, seen := x.positions[id]
		x.tracker.track(id, pos, first, seen)
		if !seen {
			x.positions[id] = pos
			continue
		}

		switch x.policy {
		case LastWins:
			x.positions[id] = pos
		case FirstWins:
		case Reject:
			return nil, fmt.Errorf("%w: %q at rows %d and %d", errs.ErrDuplicateIdentifier, id, first, pos)
		}
	}

	return x, nil
}

// Len returns the number of entities in the canonical sequence.
func (x *Index) Len() int {
	return len(x.ids)
}

// Unique returns the number of distinct identifiers.
func (x *Index) Unique() int {
	return len(x.positions)
}

// IDs returns the canonical sequence. The slice must not be modified.
func (x *Index) IDs() []string {
	return x.ids
}

// Position returns the canonical position of a raw identifier.
func (x *Index) Position(raw string) (int, bool) {
	pos, ok := x.positions[Canonical(raw)]
	return pos, ok
}

// Policy returns the duplicate policy the index was built with.
func (x *Index) Policy() DuplicatePolicy {
	return x.policy
}

// Duplicates returns every repeated identifier with all of its positions,
// in order of first repetition.
func (x *Index) Duplicates() []Duplicate {
	return x.tracker.duplicates()
}
