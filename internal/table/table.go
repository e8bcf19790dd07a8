// Package table defines the in-memory tabular model the cleaning pipeline
// operates on: a Fragment is a bounded slice of the input file's rows, held
// column-wise, that lives for exactly one read→transform→write iteration.
//
// Cells carry an explicit Missing kind rather than an empty-string or NaN
// sentinel, so transforms can distinguish "no value" from "value happens to
// be empty" without ambient conventions.
package table

import "strconv"

// Kind enumerates the value representations a Cell can hold.
type Kind uint8

const (
	Missing Kind = iota
	String
	Int
	Float
	Bool
)

// Cell is a single tagged value. Exactly the field matching Kind is
// meaningful; the rest are zero.
type Cell struct {
	Kind Kind
	S    string
	I    int64
	F    float64
	B    bool
}

// MissingCell is the canonical missing-value marker.
var MissingCell = Cell{Kind: Missing}

func StringCell(s string) Cell  { return Cell{Kind: String, S: s} }
func IntCell(i int64) Cell      { return Cell{Kind: Int, I: i} }
func FloatCell(f float64) Cell  { return Cell{Kind: Float, F: f} }
func BoolCell(b bool) Cell      { return Cell{Kind: Bool, B: b} }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == Missing }

// Text renders the cell for CSV output. Missing renders as the empty field.
func (c Cell) Text() string {
	switch c.Kind {
	case String:
		return c.S
	case Int:
		return strconv.FormatInt(c.I, 10)
	case Float:
		return strconv.FormatFloat(c.F, 'g', -1, 64)
	case Bool:
		if c.B {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Column is a named, ordered sequence of cells.
//
// When Dict is non-nil the column is dictionary-encoded: every non-missing
// cell holds an Int code indexing into Dict. Value resolves codes back to
// strings so consumers never need to care about the encoding.
type Column struct {
	Name  string
	Cells []Cell
	Dict  []string
}

// Value returns the resolved cell at row i.
func (c *Column) Value(i int) Cell {
	cell := c.Cells[i]
	if c.Dict != nil && cell.Kind == Int {
		return StringCell(c.Dict[cell.I])
	}
	return cell
}

// Fragment is one chunk of the table: columns of equal length with unique
// names, in file order.
type Fragment struct {
	Columns []Column
}

// Len returns the number of rows in the fragment.
func (f *Fragment) Len() int {
	if len(f.Columns) == 0 {
		return 0
	}
	return len(f.Columns[0].Cells)
}

// Width returns the number of columns.
func (f *Fragment) Width() int { return len(f.Columns) }

// Names returns the column names in order.
func (f *Fragment) Names() []string {
	names := make([]string, len(f.Columns))
	for i := range f.Columns {
		names[i] = f.Columns[i].Name
	}
	return names
}

// Index returns the position of the named column, or -1.
func (f *Fragment) Index(name string) int {
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// Row appends the resolved cells of row i to dst and returns it. Pass a
// reused slice to avoid per-row allocations in hot loops.
func (f *Fragment) Row(i int, dst []Cell) []Cell {
	for c := range f.Columns {
		dst = append(dst, f.Columns[c].Value(i))
	}
	return dst
}

// Filter compacts the fragment in place, keeping row i iff keep[i] is true,
// and returns the number of rows removed. Row order is preserved.
func (f *Fragment) Filter(keep []bool) int {
	n := f.Len()
	removed := 0
	for c := range f.Columns {
		cells := f.Columns[c].Cells
		w := 0
		for i := 0; i < n; i++ {
			if keep[i] {
				cells[w] = cells[i]
				w++
			}
		}
		f.Columns[c].Cells = cells[:w]
		if c == 0 {
			removed = n - w
		}
	}
	if len(f.Columns) == 0 {
		return 0
	}
	return removed
}
