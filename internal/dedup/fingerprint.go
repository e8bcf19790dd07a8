package dedup

import (
	"strconv"

	"github.com/zeebo/xxh3"

	"cleanr/internal/table"
)

// Hasher computes 64-bit row fingerprints. It keeps a reusable scratch
// buffer, so one Hasher per pipeline avoids a per-row allocation; it is not
// safe for concurrent use.
type Hasher struct {
	buf []byte
}

// Sum fingerprints a row of resolved cells.
//
// Cells are serialized as a one-byte kind tag followed by the value bytes,
// with 0x1f between cells, then hashed with xxh3. The tag keeps typed and
// textual renderings distinct (Int(1) vs String("1")), and the separator
// keeps adjacent cells from bleeding into each other ("ab","c" vs "a","bc").
func (h *Hasher) Sum(cells []table.Cell) uint64 {
	b := h.buf[:0]
	for _, c := range cells {
		b = append(b, byte(c.Kind))
		switch c.Kind {
		case table.String:
			b = append(b, c.S...)
		case table.Int:
			b = strconv.AppendInt(b, c.I, 10)
		case table.Float:
			b = strconv.AppendFloat(b, c.F, 'g', -1, 64)
		case table.Bool:
			if c.B {
				b = append(b, 't')
			} else {
				b = append(b, 'f')
			}
		}
		b = append(b, 0x1f)
	}
	h.buf = b
	return xxh3.Hash(b)
}
