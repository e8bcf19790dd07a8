// Command cleanr applies a configurable sequence of cleaning transforms to a
// CSV file and writes a cleaned copy, optionally streaming through the input
// in bounded-size chunks so files larger than memory can be processed.
//
// Usage:
//
//	cleanr [flags] input.csv [output.csv]
//
// If no output path is given, the cleaned file is written next to the input
// as <input-stem>_clean.csv.
//
// Transforms always run in a fixed canonical order regardless of flag order:
// normalize, trim, rename, add, split, keep/drop, fill, drop-na, dedup, type
// optimization. See the pipeline package for the execution model.
//
// Exit codes: 0 on success, 2 for configuration errors (detected before any
// data is processed), 1 for runtime errors (the output written before the
// failure is left in place).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cleanr/internal/config"
	"cleanr/internal/metrics"
	"cleanr/internal/metrics/prompush"
	"cleanr/internal/pipeline"
)

const (
	exitRuntime = 1
	exitConfig  = 2
)

// stringList collects repeatable flags like -rename and -add.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	var (
		trim      = flag.Bool("trim", false, "trim whitespace from string cells")
		dedupFlg  = flag.Bool("dedup", false, "remove duplicate rows (first occurrence wins)")
		normalize = flag.Bool("normalize", false, "normalize column names to snake_case")
		fill      = flag.String("fill", "", "fill missing values with `VALUE`")
		dropNA    = flag.Bool("drop-na", false, "drop rows that contain any missing value")
		keep      = flag.String("keep", "", "comma-separated `COLUMNS` to keep (mutually exclusive with -drop)")
		drop      = flag.String("drop", "", "comma-separated `COLUMNS` to drop")
		quick     = flag.Bool("quick", false, "skip type optimization (faster for large files)")
		chunk     = flag.Int("chunk", 0, "process the file in chunks of `N` rows (0 = whole file at once)")
		encName   = flag.String("encoding", "", "input/output `ENCODING` (utf-8, utf-8-sig, latin1, cp1252, utf-16)")
		quiet     = flag.Bool("quiet", false, "suppress progress output")
		dedupIdx  = flag.String("dedup-index", "", "keep dedup fingerprints in a SQLite file at `PATH` instead of memory")

		renames stringList
		adds    stringList
		splits  stringList

		metricsBackendFlg string
		pushGatewayURLFlg string
	)
	flag.Var(&renames, "rename", "rename a column, `OLD=NEW` (repeatable)")
	flag.Var(&adds, "add", "add a column as a copy of another, `NEW=OLD` (repeatable)")
	flag.Var(&splits, "split", "split a column, `COL:NEW1,NEW2:DELIM` (repeatable)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: cleanr [flags] input.csv [output.csv]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(exitConfig)
	}

	spec, err := buildSpec(flag.Args(), specFlags{
		trim: *trim, dedup: *dedupFlg, normalize: *normalize,
		fillSet: flagWasSet("fill"), fill: *fill,
		dropNA: *dropNA, keep: *keep, drop: *drop,
		quick: *quick, chunk: *chunk, encoding: *encName, quiet: *quiet,
		dedupIndex: *dedupIdx,
		renames:    renames, adds: adds, splits: splits,
	})
	if err != nil {
		fatalf(exitConfig, "%v", err)
	}

	issues := config.Validate(spec)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		os.Exit(exitConfig)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, spec)

	// Flushed explicitly on both paths: fatalf exits the process, so a
	// deferred flush would never run for failed runs, and those are exactly
	// the runs the Pushgateway needs to see.
	_, runErr := pipeline.New(spec).Run(context.Background())
	flushMetrics()
	if runErr != nil {
		fatalf(exitCodeFor(runErr), "%v", runErr)
	}
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

// exitCodeFor maps a failed run to the process exit code: configuration
// failures (detected before any chunk) exit 2, everything else exits 1.
func exitCodeFor(err error) int {
	var cfgErr *pipeline.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	return exitRuntime
}

type specFlags struct {
	trim, dedup, normalize bool
	fillSet                bool
	fill                   string
	dropNA                 bool
	keep, drop             string
	quick                  bool
	chunk                  int
	encoding               string
	quiet                  bool
	dedupIndex             string
	renames, adds, splits  stringList
}

// buildSpec assembles the immutable run spec from positional args and flags.
// Malformed repeatable flags (bad OLD=NEW or split syntax) are configuration
// errors; everything else is validated by config.Validate.
func buildSpec(args []string, f specFlags) (config.Spec, error) {
	spec := config.Spec{
		Input:      args[0],
		Trim:       f.trim,
		Dedup:      f.dedup,
		Normalize:  f.normalize,
		DropNA:     f.dropNA,
		Quick:      f.quick,
		ChunkSize:  f.chunk,
		Encoding:   f.encoding,
		Quiet:      f.quiet,
		DedupIndex: f.dedupIndex,
		Keep:       splitList(f.keep),
		Drop:       splitList(f.drop),
	}
	if len(args) == 2 {
		spec.Output = args[1]
	}
	if f.fillSet {
		v := f.fill
		spec.Fill = &v
	}

	for _, r := range f.renames {
		oldName, newName, ok := strings.Cut(r, "=")
		if !ok {
			return spec, fmt.Errorf("malformed -rename %q (expected OLD=NEW)", r)
		}
		spec.Renames = append(spec.Renames, config.RenamePair{
			Old: strings.TrimSpace(oldName), New: strings.TrimSpace(newName),
		})
	}
	for _, a := range f.adds {
		name, src, ok := strings.Cut(a, "=")
		if !ok {
			return spec, fmt.Errorf("malformed -add %q (expected NEW=OLD)", a)
		}
		spec.Adds = append(spec.Adds, config.AddPair{
			Name: strings.TrimSpace(name), Source: strings.TrimSpace(src),
		})
	}
	for _, s := range f.splits {
		// COL:NEW1,NEW2:DELIM — the delimiter is everything after the
		// second colon, so delimiters containing ':' work.
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			return spec, fmt.Errorf("malformed -split %q (expected COL:NEW1,NEW2:DELIM)", s)
		}
		spec.Splits = append(spec.Splits, config.SplitRule{
			Column:    strings.TrimSpace(parts[0]),
			Names:     splitList(parts[1]),
			Delimiter: parts[2],
		})
	}
	return spec, nil
}

// splitList splits a comma-separated flag value into trimmed, non-empty
// items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// flagWasSet reports whether the named flag appeared on the command line,
// so -fill="" (fill with the empty string) is distinguishable from no -fill.
func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// setupMetrics decides the metrics backend: flag → env → default (none).
func setupMetrics(backendName, gwURL string, spec config.Spec) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("cleanr", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		if !spec.Quiet {
			log.Printf("metrics: backend=pushgateway url=%s", gwURL)
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(code int, format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(code)
}
