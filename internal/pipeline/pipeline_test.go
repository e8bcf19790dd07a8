package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cleanr/internal/config"
)

// runOn writes data to a temp input file, runs the spec against it, and
// returns the summary, the output contents, and the run error.
func runOn(t *testing.T, data string, spec config.Spec) (Summary, string, error) {
	t.Helper()
	dir := t.TempDir()
	spec.Input = filepath.Join(dir, "in.csv")
	if spec.Output == "" {
		spec.Output = filepath.Join(dir, "out.csv")
	}
	spec.Quiet = true
	if err := os.WriteFile(spec.Input, []byte(data), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	sum, err := New(spec).Run(context.Background())

	var out string
	if b, rerr := os.ReadFile(spec.Output); rerr == nil {
		out = string(b)
	}
	return sum, out, err
}

func TestRun_TrimDedupNormalize(t *testing.T) {
	t.Parallel()

	data := "Name,Email\n  Bob  ,bob@x.com\nBob,bob@x.com\n"
	sum, out, err := runOn(t, data, config.Spec{
		Trim: true, Dedup: true, Normalize: true, Quick: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// After trimming, the two rows are identical; the first occurrence wins.
	if out != "name,email\nBob,bob@x.com\n" {
		t.Fatalf("output = %q", out)
	}
	if sum.RowsRead != 2 || sum.RowsWritten != 1 || sum.Duplicates != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Columns != 2 || sum.Chunks != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRun_FillVersusDropNA(t *testing.T) {
	t.Parallel()

	data := "a,b\n1,\n,2\n3,4\n"
	fill := "NA"

	t.Run("fill", func(t *testing.T) {
		t.Parallel()
		sum, out, err := runOn(t, data, config.Spec{Fill: &fill, Quick: true})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if out != "a,b\n1,NA\nNA,2\n3,4\n" {
			t.Fatalf("output = %q", out)
		}
		if sum.RowsWritten != 3 || sum.MissingDropped != 0 {
			t.Fatalf("summary = %+v", sum)
		}
	})

	t.Run("drop_na", func(t *testing.T) {
		t.Parallel()
		sum, out, err := runOn(t, data, config.Spec{DropNA: true, Quick: true})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if out != "a,b\n3,4\n" {
			t.Fatalf("output = %q", out)
		}
		if sum.RowsWritten != 1 || sum.MissingDropped != 2 {
			t.Fatalf("summary = %+v", sum)
		}
	})
}

// Chunk size must not change results: the same input cleaned whole and
// cleaned in small chunks produces byte-identical output. Quick mode keeps
// type decisions out of the comparison; those are per-chunk by design.
func TestRun_ChunkedMatchesUnchunked(t *testing.T) {
	t.Parallel()

	data := "id,name\n"
	for i := 0; i < 50; i++ {
		// Every value repeats, so duplicates cross chunk boundaries.
		n := byte('a' + i%10)
		data += string([]byte{'0' + byte(i%10), ',', n, n, '\n'})
	}
	spec := config.Spec{Trim: true, Dedup: true, Quick: true}

	_, whole, err := runOn(t, data, spec)
	if err != nil {
		t.Fatalf("unchunked run: %v", err)
	}

	spec.ChunkSize = 7
	sum, chunked, err := runOn(t, data, spec)
	if err != nil {
		t.Fatalf("chunked run: %v", err)
	}

	if whole != chunked {
		t.Fatalf("chunked output differs:\nwhole:   %q\nchunked: %q", whole, chunked)
	}
	if sum.Chunks != 8 { // ceil(50/7)
		t.Fatalf("chunks = %d, want 8", sum.Chunks)
	}
	if sum.RowsWritten != 10 || sum.Duplicates != 40 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestRun_TypeOptimization(t *testing.T) {
	t.Parallel()

	data := "n,flag\n42.0,yes\n7,no\n"
	_, out, err := runOn(t, data, config.Spec{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "n,flag\n42,true\n7,false\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestRun_QuickKeepsText(t *testing.T) {
	t.Parallel()

	data := "n,flag\n42.0,yes\n7,no\n"
	_, out, err := runOn(t, data, config.Spec{Quick: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "n,flag\n42.0,yes\n7,no\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestRun_HeaderOnlyInput(t *testing.T) {
	t.Parallel()

	_, out, err := runOn(t, "A Col,B\n", config.Spec{Normalize: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "a_col,b\n" {
		t.Fatalf("output = %q", out)
	}
}

func TestRun_SplitAndKeep(t *testing.T) {
	t.Parallel()

	data := "full_name,email\nAda Lovelace,ada@x.com\nGrace,grace@x.com\n"
	sum, out, err := runOn(t, data, config.Spec{
		Splits: []config.SplitRule{{Column: "full_name", Names: []string{"first", "last"}, Delimiter: " "}},
		Keep:   []string{"first", "last", "email"},
		Quick:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "first,last,email\nAda,Lovelace,ada@x.com\nGrace,,grace@x.com\n" {
		t.Fatalf("output = %q", out)
	}
	// "Grace" has no delimiter: a recovered anomaly, not a dropped row.
	if sum.Anomalies != 1 {
		t.Fatalf("anomalies = %d, want 1", sum.Anomalies)
	}
}

func TestRun_SQLiteDedupIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	data := "a\nx\ny\nx\n"
	sum, out, err := runOn(t, data, config.Spec{
		Dedup:      true,
		DedupIndex: filepath.Join(dir, "fp.db"),
		Quick:      true,
		ChunkSize:  1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "a\nx\ny\n" {
		t.Fatalf("output = %q", out)
	}
	if sum.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", sum.Duplicates)
	}
}

func TestRun_ConfigErrors(t *testing.T) {
	t.Parallel()

	t.Run("keep_drop_conflict_before_output", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "in.csv")
		outPath := filepath.Join(dir, "out.csv")
		if err := os.WriteFile(in, []byte("a,b\n1,2\n"), 0o644); err != nil {
			t.Fatalf("write input: %v", err)
		}

		runner := New(config.Spec{
			Input: in, Output: outPath, Quiet: true,
			Keep: []string{"a"}, Drop: []string{"b"},
		})
		_, err := runner.Run(context.Background())

		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
		if runner.State() != StateFailed {
			t.Fatalf("state = %s", runner.State())
		}
		// Configuration failures must not leave a partial output file behind.
		if _, serr := os.Stat(outPath); !errors.Is(serr, os.ErrNotExist) {
			t.Fatalf("output file exists after config error: %v", serr)
		}
	})

	t.Run("missing_input", func(t *testing.T) {
		t.Parallel()
		_, err := New(config.Spec{
			Input: filepath.Join(t.TempDir(), "nope.csv"), Quiet: true,
		}).Run(context.Background())

		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("err = %v, want os.ErrNotExist in chain", err)
		}
	})

	t.Run("unknown_encoding", func(t *testing.T) {
		t.Parallel()
		_, _, err := runOn(t, "a\n1\n", config.Spec{Encoding: "ebcdic"})
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
	})

	t.Run("unknown_rename_column", func(t *testing.T) {
		t.Parallel()
		_, _, err := runOn(t, "a\n1\n", config.Spec{
			Renames: []config.RenamePair{{Old: "nope", New: "x"}},
		})
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("err = %v, want *ConfigError", err)
		}
	})
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(in, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.Spec{Input: in, Output: filepath.Join(dir, "out.csv"), Quiet: true}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRun_IdentityPreservesRows(t *testing.T) {
	t.Parallel()

	// Leading and trailing whitespace must survive untouched; only the trim
	// transform may clean it. The writer quotes fields that start with a
	// space, which changes representation but not value.
	data := "a,b\n  1 ,2\n3,\n"
	sum, out, err := runOn(t, data, config.Spec{Quick: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "a,b\n\"  1 \",2\n3,\n" {
		t.Fatalf("identity run altered data: %q", out)
	}
	if sum.RowsRead != 2 || sum.RowsWritten != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Output == "" {
		t.Fatal("summary missing output path")
	}
}

// Bytes the configured encoding cannot decode abort the run with the chunk
// index instead of flowing into the output.
func TestRun_UndecodableInputIsFatal(t *testing.T) {
	t.Parallel()

	_, _, err := runOn(t, "a\nok\nb\xffc\n", config.Spec{Quick: true})

	var rerr *RunError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *RunError", err)
	}
	if rerr.Stage != "decode" || rerr.Chunk != 1 {
		t.Fatalf("RunError = %+v, want stage decode in chunk 1", rerr)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if StateIdle.String() != "idle" || StateDone.String() != "done" {
		t.Fatal("state names changed")
	}
	if s := State(99).String(); s != "state(99)" {
		t.Fatalf("unknown state = %q", s)
	}
}
