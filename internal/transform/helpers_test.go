package transform

import (
	"testing"

	"cleanr/internal/table"
)

// frag builds a fragment from a header and string rows; "" cells become
// missing markers, mirroring what the reader produces.
func frag(t *testing.T, header []string, rows ...[]string) *table.Fragment {
	t.Helper()
	cols := make([]table.Column, len(header))
	for i, h := range header {
		cols[i] = table.Column{Name: h}
	}
	for _, row := range rows {
		if len(row) != len(header) {
			t.Fatalf("row width %d != header width %d", len(row), len(header))
		}
		for i, v := range row {
			if v == "" {
				cols[i].Cells = append(cols[i].Cells, table.MissingCell)
			} else {
				cols[i].Cells = append(cols[i].Cells, table.StringCell(v))
			}
		}
	}
	return &table.Fragment{Columns: cols}
}

// rowStrings renders row i back to text, missing cells as "<na>".
func rowStrings(fr *table.Fragment, i int) []string {
	out := make([]string, fr.Width())
	for c := range fr.Columns {
		cell := fr.Columns[c].Value(i)
		if cell.IsMissing() {
			out[c] = "<na>"
		} else {
			out[c] = cell.Text()
		}
	}
	return out
}
