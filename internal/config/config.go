// Package config defines the canonical configuration model for a cleaning
// run. It is intentionally small, explicit, and dependency-free so that a
// Spec can be assembled by the CLI (or tests) and passed through the program
// without additional glue code.
//
// Design goals:
//
//  1. Immutability: a Spec is built once, before the first chunk is read,
//     and never mutated during the run. There is no ambient global state.
//  2. Clarity: one field per command-line option, typed, no option bags.
//  3. Minimalism: no third-party config libraries; the CLI fills the struct
//     directly from flags.
package config

// RenamePair renames an existing column (Old) to New.
type RenamePair struct {
	Old string
	New string
}

// AddPair creates column Name as a copy of existing column Source.
type AddPair struct {
	Name   string
	Source string
}

// SplitRule splits Column on Delimiter into len(Names) new columns. Rows
// that produce fewer parts than names get missing markers for the rest.
type SplitRule struct {
	Column    string
	Names     []string
	Delimiter string
}

// Spec is the full, immutable description of one cleaning run. The transform
// fields map one-to-one onto pipeline transforms; the remaining fields are
// runner settings.
//
// Requested transforms are applied in a fixed canonical order regardless of
// the order the flags were given, so results compose deterministically
// across chunks: normalize, trim, rename, add, split, keep/drop, fill,
// drop-na, dedup, type optimization.
type Spec struct {
	// Input is the path of the CSV to clean. Required.
	Input string
	// Output is the destination path. Empty means "<input-stem>_clean.csv"
	// alongside the input.
	Output string

	Trim      bool
	Dedup     bool
	Normalize bool
	// Fill, when non-nil, replaces every missing cell with the literal.
	Fill   *string
	DropNA bool
	// Keep and Drop are mutually exclusive column projections.
	Keep []string
	Drop []string

	Renames []RenamePair
	Adds    []AddPair
	Splits  []SplitRule

	// Quick disables type optimization entirely; all columns stay text.
	Quick bool
	// ChunkSize is the number of rows per chunk. Zero or negative means the
	// whole file is processed as a single chunk.
	ChunkSize int
	// Encoding names the input (and output) character encoding, e.g.
	// "utf-8", "latin1", "cp1252", "utf-16". Empty means UTF-8.
	Encoding string
	// DedupIndex, when non-empty, is the path of a SQLite database used to
	// hold dedup fingerprints on disk instead of in memory.
	DedupIndex string
	// Quiet suppresses progress reporting. It has no effect on results.
	Quiet bool
}
