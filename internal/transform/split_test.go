package transform

import (
	"reflect"
	"testing"
)

func TestSplitStep(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		value         string
		wantFirst     string
		wantLast      string
		wantAnomalies int
	}{
		{
			name:      "two_parts",
			value:     "Ada Lovelace",
			wantFirst: "Ada",
			wantLast:  "Lovelace",
		},
		{
			name:          "no_delimiter_pads_with_missing",
			value:         "Ada",
			wantFirst:     "Ada",
			wantLast:      "<na>",
			wantAnomalies: 1,
		},
		{
			name:      "extra_parts_go_to_last_name",
			value:     "Ada King Lovelace",
			wantFirst: "Ada",
			wantLast:  "King Lovelace",
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			fr := frag(t, []string{"full_name"}, []string{c.value})
			stats := (&splitStep{
				column: "full_name",
				names:  []string{"first", "last"},
				delim:  " ",
			}).Apply(fr)

			if stats.Anomalies != c.wantAnomalies {
				t.Fatalf("anomalies = %d, want %d", stats.Anomalies, c.wantAnomalies)
			}
			if got := fr.Names(); !reflect.DeepEqual(got, []string{"full_name", "first", "last"}) {
				t.Fatalf("names = %q", got)
			}
			got := rowStrings(fr, 0)
			if got[1] != c.wantFirst || got[2] != c.wantLast {
				t.Fatalf("split(%q) = first=%q last=%q, want %q/%q",
					c.value, got[1], got[2], c.wantFirst, c.wantLast)
			}
		})
	}
}

func TestSplitStep_MissingSource(t *testing.T) {
	t.Parallel()

	fr := frag(t, []string{"full_name"}, []string{""})
	(&splitStep{column: "full_name", names: []string{"first", "last"}, delim: " "}).Apply(fr)

	got := rowStrings(fr, 0)
	if got[1] != "<na>" || got[2] != "<na>" {
		t.Fatalf("missing source should yield missing parts, got %q", got)
	}
}
