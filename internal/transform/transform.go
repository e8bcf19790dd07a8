// Package transform implements the row/column cleaning transforms and the
// canonical-order chain that applies them to every table fragment.
//
// Each transform is a small value that mutates a fragment in place and
// reports what it dropped. Transforms carry no cross-chunk state; the one
// stateful concern, deduplication, lives in the dedup package and is driven
// by the pipeline runner after the chain has run.
//
// Transforms always run in a fixed canonical order regardless of the order
// the user requested them, so results compose deterministically when the
// file is processed in chunks:
//
//	normalize → trim → rename → add → split → keep/drop → fill → drop-na
//
// Column references in rename/add/split are resolved once, against the
// (post-normalize) header, when the chain is built. A reference to a column
// that does not exist is a configuration error detected before any chunk is
// processed, never a per-row error.
package transform

import (
	"fmt"
	"log"
	"strings"

	"cleanr/internal/config"
	"cleanr/internal/table"
)

// Stats reports per-fragment outcomes of one transform application.
type Stats struct {
	// RowsDropped counts rows removed from the fragment (drop-na).
	RowsDropped int
	// Anomalies counts row-level irregularities that were recovered locally
	// (e.g. a split producing fewer parts than requested names).
	Anomalies int
}

func (s *Stats) add(o Stats) {
	s.RowsDropped += o.RowsDropped
	s.Anomalies += o.Anomalies
}

// Transform mutates a fragment in place.
type Transform interface {
	Name() string
	Apply(fr *table.Fragment) Stats
}

// Chain is the resolved, ordered transform sequence for one run. It is built
// once before the first chunk is read and applied unchanged to every chunk.
type Chain struct {
	steps  []Transform
	header []string
}

// Header returns the column names fragments carry after the full chain has
// been applied.
func (c *Chain) Header() []string { return c.header }

// Steps returns the transform names in application order, for logging.
func (c *Chain) Steps() []string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return names
}

// Apply runs every step against the fragment in canonical order and returns
// the aggregated stats.
func (c *Chain) Apply(fr *table.Fragment) Stats {
	var total Stats
	for _, step := range c.steps {
		total.add(step.Apply(fr))
	}
	return total
}

// NewChain resolves the requested transforms against the input header and
// returns the canonical-order chain. All column references are validated
// here; any failure is a configuration error and no chunk should be
// processed.
//
// rawHeader is the header exactly as read from the file (edge whitespace
// already trimmed by the reader).
func NewChain(spec config.Spec, rawHeader []string) (*Chain, error) {
	if len(spec.Keep) > 0 && len(spec.Drop) > 0 {
		return nil, fmt.Errorf("keep and drop are mutually exclusive")
	}

	header := append([]string(nil), rawHeader...)
	var steps []Transform

	if spec.Normalize {
		header = NormalizeNames(header)
		steps = append(steps, &normalizeStep{names: header})
	}
	if spec.Trim {
		steps = append(steps, trimStep{})
	}

	for _, r := range spec.Renames {
		i := indexOf(header, r.Old)
		if i < 0 {
			return nil, fmt.Errorf("rename: column %q not found", r.Old)
		}
		// Renaming onto another existing column would leave the fragment
		// with duplicate names, so every later by-name lookup would silently
		// hit the wrong column.
		if j := indexOf(header, r.New); j >= 0 && j != i {
			return nil, fmt.Errorf("rename: column %q already exists", r.New)
		}
		header[i] = r.New
		steps = append(steps, &renameStep{old: r.Old, new: r.New})
	}

	for _, a := range spec.Adds {
		if indexOf(header, a.Source) < 0 {
			return nil, fmt.Errorf("add: source column %q not found; cannot create %q", a.Source, a.Name)
		}
		if indexOf(header, a.Name) < 0 {
			header = append(header, a.Name)
		}
		steps = append(steps, &addStep{name: a.Name, source: a.Source})
	}

	for _, sp := range spec.Splits {
		if indexOf(header, sp.Column) < 0 {
			return nil, fmt.Errorf("split: column %q not found", sp.Column)
		}
		for _, n := range sp.Names {
			if indexOf(header, n) < 0 {
				header = append(header, n)
			}
		}
		steps = append(steps, &splitStep{column: sp.Column, names: sp.Names, delim: sp.Delimiter})
	}

	switch {
	case len(spec.Keep) > 0:
		// Unknown names are skipped with a warning rather than failing the
		// run; the projection keeps the requested order.
		var kept, missing []string
		for _, k := range spec.Keep {
			if indexOf(header, k) >= 0 {
				kept = append(kept, k)
			} else {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			log.Printf("keep: columns not found and skipped: %s", strings.Join(missing, ", "))
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("keep: none of the requested columns exist")
		}
		header = append([]string(nil), kept...)
		steps = append(steps, &keepStep{columns: kept})
	case len(spec.Drop) > 0:
		next := header[:0:0]
		dropSet := make(map[string]struct{}, len(spec.Drop))
		for _, d := range spec.Drop {
			if indexOf(header, d) < 0 {
				log.Printf("drop: column %q not found; ignored", d)
				continue
			}
			dropSet[d] = struct{}{}
		}
		for _, h := range header {
			if _, gone := dropSet[h]; !gone {
				next = append(next, h)
			}
		}
		if len(next) == 0 {
			return nil, fmt.Errorf("drop: would remove every column")
		}
		header = next
		steps = append(steps, &dropStep{columns: spec.Drop})
	}

	if spec.Fill != nil {
		steps = append(steps, &fillStep{value: *spec.Fill})
	}
	if spec.DropNA {
		steps = append(steps, dropNAStep{})
	}

	return &Chain{steps: steps, header: header}, nil
}

func indexOf(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}
