package transform

import (
	"strings"

	"cleanr/internal/table"
)

// normalizeStep renames the fragment's columns to the precomputed canonical
// header. Fragments always arrive with the full input width, so the mapping
// is positional.
type normalizeStep struct {
	names []string
}

func (s *normalizeStep) Name() string { return "normalize" }

func (s *normalizeStep) Apply(fr *table.Fragment) Stats {
	for i := range fr.Columns {
		if i < len(s.names) {
			fr.Columns[i].Name = s.names[i]
		}
	}
	return Stats{}
}

// trimStep strips edge whitespace from every string cell. A cell that trims
// down to nothing becomes missing, mirroring how the reader treats empty
// source fields.
type trimStep struct{}

func (trimStep) Name() string { return "trim" }

func (trimStep) Apply(fr *table.Fragment) Stats {
	for c := range fr.Columns {
		cells := fr.Columns[c].Cells
		for i, cell := range cells {
			if cell.Kind != table.String {
				continue
			}
			if !hasEdgeSpace(cell.S) {
				continue
			}
			t := strings.TrimSpace(cell.S)
			if t == "" {
				cells[i] = table.MissingCell
			} else {
				cells[i] = table.StringCell(t)
			}
		}
	}
	return Stats{}
}

// hasEdgeSpace reports whether s starts or ends with whitespace, so the hot
// loop can skip the TrimSpace allocation for already-clean cells.
func hasEdgeSpace(s string) bool {
	if s == "" {
		return false
	}
	first, last := s[0], s[len(s)-1]
	return first == ' ' || first == '\t' || first == '\n' || first == '\r' ||
		last == ' ' || last == '\t' || last == '\n' || last == '\r'
}

type renameStep struct {
	old string
	new string
}

func (s *renameStep) Name() string { return "rename" }

func (s *renameStep) Apply(fr *table.Fragment) Stats {
	if i := fr.Index(s.old); i >= 0 {
		fr.Columns[i].Name = s.new
	}
	return Stats{}
}

// addStep appends a copy of the source column under a new name. If the name
// already exists the existing column is replaced in place, keeping column
// names unique within the fragment.
type addStep struct {
	name   string
	source string
}

func (s *addStep) Name() string { return "add" }

func (s *addStep) Apply(fr *table.Fragment) Stats {
	src := fr.Index(s.source)
	if src < 0 {
		return Stats{}
	}
	col := table.Column{
		Name:  s.name,
		Cells: append([]table.Cell(nil), fr.Columns[src].Cells...),
		Dict:  fr.Columns[src].Dict,
	}
	if i := fr.Index(s.name); i >= 0 {
		fr.Columns[i] = col
	} else {
		fr.Columns = append(fr.Columns, col)
	}
	return Stats{}
}

// keepStep projects the fragment down to the listed columns, in list order.
type keepStep struct {
	columns []string
}

func (s *keepStep) Name() string { return "keep" }

func (s *keepStep) Apply(fr *table.Fragment) Stats {
	next := make([]table.Column, 0, len(s.columns))
	for _, name := range s.columns {
		if i := fr.Index(name); i >= 0 {
			next = append(next, fr.Columns[i])
		}
	}
	fr.Columns = next
	return Stats{}
}

type dropStep struct {
	columns []string
}

func (s *dropStep) Name() string { return "drop" }

func (s *dropStep) Apply(fr *table.Fragment) Stats {
	gone := make(map[string]struct{}, len(s.columns))
	for _, name := range s.columns {
		gone[name] = struct{}{}
	}
	next := fr.Columns[:0]
	for _, col := range fr.Columns {
		if _, drop := gone[col.Name]; !drop {
			next = append(next, col)
		}
	}
	fr.Columns = next
	return Stats{}
}

// fillStep replaces every missing cell with a literal string.
type fillStep struct {
	value string
}

func (s *fillStep) Name() string { return "fill" }

func (s *fillStep) Apply(fr *table.Fragment) Stats {
	fill := table.StringCell(s.value)
	for c := range fr.Columns {
		cells := fr.Columns[c].Cells
		for i := range cells {
			if cells[i].IsMissing() {
				cells[i] = fill
			}
		}
	}
	return Stats{}
}

// dropNAStep removes rows that still contain any missing cell.
type dropNAStep struct{}

func (dropNAStep) Name() string { return "drop-na" }

func (dropNAStep) Apply(fr *table.Fragment) Stats {
	n := fr.Len()
	if n == 0 {
		return Stats{}
	}
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	for c := range fr.Columns {
		for i, cell := range fr.Columns[c].Cells {
			if cell.IsMissing() {
				keep[i] = false
			}
		}
	}
	return Stats{RowsDropped: fr.Filter(keep)}
}
