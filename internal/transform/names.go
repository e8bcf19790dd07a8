package transform

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeNames canonicalizes raw header labels into lowercase snake_case
// identifiers: non-alphanumeric runs collapse to a single underscore and
// leading/trailing underscores are stripped.
//
// The result always has the same length as the input and is reproducible for
// identical input:
//
//   - a label that normalizes to the empty string becomes "column_N"
//     (1-based position);
//   - when two distinct labels normalize to the same name, the second and
//     subsequent occurrences get "_2", "_3", ... suffixes in left-to-right
//     order. Collisions are a fallback policy, not an error.
func NormalizeNames(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, label := range raw {
		name := normalizeOne(label)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if _, dup := seen[name]; dup {
			base := name
			for n := 2; ; n++ {
				name = base + "_" + strconv.Itoa(n)
				if _, dup := seen[name]; !dup {
					break
				}
			}
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

func normalizeOne(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))

	var b strings.Builder
	b.Grow(len(label))
	pendingSep := false
	for _, r := range label {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			// Any run of non-alphanumerics collapses to one underscore,
			// and only between alphanumeric runs.
			if b.Len() > 0 {
				pendingSep = true
			}
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
