package transform

import (
	"strings"

	"cleanr/internal/table"
)

// splitStep splits a column's string values on a delimiter into one or more
// new columns. The source column is kept; the new columns are appended (or
// replaced in place if a name already exists).
//
// A row whose value yields fewer parts than requested names gets missing
// markers for the unfilled names; that is a recovered row-level anomaly, not
// an error. The last name receives the remainder of the value, so a split
// into two names never discards text after the first delimiter.
type splitStep struct {
	column string
	names  []string
	delim  string
}

func (s *splitStep) Name() string { return "split" }

func (s *splitStep) Apply(fr *table.Fragment) Stats {
	src := fr.Index(s.column)
	if src < 0 {
		return Stats{}
	}

	n := fr.Len()
	parts := make([][]table.Cell, len(s.names))
	for i := range parts {
		parts[i] = make([]table.Cell, n)
	}

	var stats Stats
	for row := 0; row < n; row++ {
		cell := fr.Columns[src].Value(row)
		if cell.Kind != table.String {
			// Missing (or already-typed) source: every part is missing.
			for i := range parts {
				parts[i][row] = table.MissingCell
			}
			if !cell.IsMissing() {
				stats.Anomalies++
			}
			continue
		}
		pieces := strings.SplitN(cell.S, s.delim, len(s.names))
		for i := range s.names {
			if i < len(pieces) {
				parts[i][row] = table.StringCell(pieces[i])
			} else {
				parts[i][row] = table.MissingCell
			}
		}
		if len(pieces) < len(s.names) {
			stats.Anomalies++
		}
	}

	for i, name := range s.names {
		col := table.Column{Name: name, Cells: parts[i]}
		if j := fr.Index(name); j >= 0 {
			fr.Columns[j] = col
		} else {
			fr.Columns = append(fr.Columns, col)
		}
	}
	return stats
}
