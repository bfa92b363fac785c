package index

// Duplicate describes an identifier that occurs more than once in the
// canonical table.
type Duplicate struct {
	ID        string
	Positions []int
}

// tracker records repeated identifiers while the index is built.
type tracker struct {
	byID map[string]int // identifier → index into dups
	dups []Duplicate
}

func newTracker() *tracker {
	return &tracker{byID: make(map[string]int)}
}

// track records pos for id. first and seen come from the index lookup
// before pos is applied.
func (t *tracker) track(id string, pos, first int, seen bool) {
	if !seen {
		return
	}

	i, ok := t.byID[id]
	if !ok {
		t.byID[id] = len(t.dups)
		t.dups = append(t.dups, Duplicate{ID: id, Positions: []int{first, pos}})

		return
	}

	t.dups[i].Positions = append(t.dups[i].Positions, pos)
}

func (t *tracker) duplicates() []Duplicate {
	out := make([]Duplicate, len(t.dups))
	for i, d := range t.dups {
		out[i] = Duplicate{ID: d.ID, Positions: append([]int(nil), d.Positions...)}
	}

	return out
}
