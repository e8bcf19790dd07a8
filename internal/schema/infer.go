// Package schema narrows fragment columns to the smallest safe
// representation: text columns whose values all parse become boolean,
// integer, or float columns, and low-cardinality text becomes a
// dictionary-encoded categorical column.
//
// Decisions are made independently per chunk. Nothing reconciles the choice
// made for chunk 1 with the choice made for chunk 2, so a column can
// serialize as "12" in one chunk and "12.5" in another within the same
// output file. That is a documented limitation of chunked runs; quick mode
// (which skips this package entirely and leaves every column as text)
// sidesteps it.
package schema

import (
	"strconv"
	"strings"

	"cleanr/internal/table"
)

const (
	// minCategorizeRows matches the original tool's floor: tiny fragments
	// are not worth dictionary-encoding.
	minCategorizeRows = 1000

	// maxCardinalityRatio is the distinct/total threshold below which a
	// text column is considered categorical.
	maxCardinalityRatio = 0.5
)

// Optimize narrows each column of the fragment in place. Only text columns
// are candidates; missing cells stay missing whatever the column becomes.
//
// Per column the checks run strictest first: all-integer (including
// "42.0"-style float-integers), then all-float, then all-boolean, then
// categorical. A column that matches none stays text. Numeric checks come
// before boolean so that 0/1 columns narrow to integers, not booleans.
func Optimize(fr *table.Fragment) {
	rows := fr.Len()
	for c := range fr.Columns {
		col := &fr.Columns[c]
		if col.Dict != nil {
			continue
		}
		optimizeColumn(col, rows)
	}
}

func optimizeColumn(col *table.Column, rows int) {
	allBool, allInt, allFloat := true, true, true
	nonMissing := 0

	for _, cell := range col.Cells {
		switch cell.Kind {
		case table.Missing:
			continue
		case table.String:
		default:
			// Already typed; leave the column alone.
			return
		}
		nonMissing++
		s := cell.S
		if allBool {
			if _, ok := parseBool(s); !ok {
				allBool = false
			}
		}
		if allInt {
			if _, ok := parseIntFast(s); !ok {
				allInt = false
			}
		}
		if allFloat && !allInt {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				allFloat = false
			}
		}
		if !allBool && !allInt && !allFloat {
			break
		}
	}
	if nonMissing == 0 {
		return
	}

	switch {
	case allInt:
		for i, cell := range col.Cells {
			if cell.Kind == table.String {
				v, _ := parseIntFast(cell.S)
				col.Cells[i] = table.IntCell(v)
			}
		}
	case allFloat:
		for i, cell := range col.Cells {
			if cell.Kind == table.String {
				f, _ := strconv.ParseFloat(cell.S, 64)
				col.Cells[i] = table.FloatCell(f)
			}
		}
	case allBool:
		for i, cell := range col.Cells {
			if cell.Kind == table.String {
				b, _ := parseBool(cell.S)
				col.Cells[i] = table.BoolCell(b)
			}
		}
	default:
		categorize(col, rows)
	}
}

// categorize dictionary-encodes the column when its distinct-value count is
// small relative to the row count. Codes are assigned in first-appearance
// order, so the encoding is deterministic for identical input.
func categorize(col *table.Column, rows int) {
	if rows < minCategorizeRows {
		return
	}
	codes := make(map[string]int64)
	var dict []string

	// First pass only counts distinct values; bail out early once the
	// column is clearly not categorical.
	limit := int(float64(rows) * maxCardinalityRatio)
	for _, cell := range col.Cells {
		if cell.Kind != table.String {
			continue
		}
		if _, seen := codes[cell.S]; !seen {
			codes[cell.S] = int64(len(dict))
			dict = append(dict, cell.S)
			if len(dict) >= limit {
				return
			}
		}
	}

	for i, cell := range col.Cells {
		if cell.Kind == table.String {
			col.Cells[i] = table.IntCell(codes[cell.S])
		}
	}
	col.Dict = dict
}

// parseIntFast parses integers, accepting "42.0"-style inputs whose
// fractional part is zero. The float fallback only runs when a '.' is
// present.
func parseIntFast(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	}
	return 0, false
}

// parseBool recognizes the same broad vocabulary the coercion layer of the
// original pipeline used, case-insensitively.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	default:
		return false, false
	}
}
