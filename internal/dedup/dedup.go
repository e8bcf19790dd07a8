// Package dedup implements the cross-chunk duplicate-row tracker.
//
// Deduplication is the one transform whose correctness spans chunk
// boundaries: a row seen in chunk 7 must be recognized as a duplicate of a
// row emitted in chunk 1. The tracker therefore holds one fingerprint per
// distinct row ever seen in the run. That state grows with the number of
// distinct rows in the whole file — it is the single deliberate exception to
// constant-memory streaming, traded for exact first-occurrence-wins
// semantics. For inputs where that set would not fit in memory, a
// SQLite-backed index (see SQLiteTracker) keeps it on disk instead.
//
// Fingerprints are computed over post-cleaning cell values (after fill and
// drop-na have run for the row), so "  Bob " and "Bob" deduplicate once trim
// is requested.
package dedup

import "context"

// Tracker remembers which row fingerprints have already been emitted.
//
// IsNew must be called once per surviving row, in row-arrival order; it
// returns true exactly once per distinct fingerprint for the lifetime of the
// run. This strict ordering requirement is why the pipeline processes chunks
// sequentially.
type Tracker interface {
	IsNew(ctx context.Context, fp uint64) (bool, error)
	// Len returns the number of distinct fingerprints seen so far, or -1 if
	// the store cannot tell cheaply.
	Len() int
	Close() error
}

// MemoryTracker is the default in-process fingerprint set.
type MemoryTracker struct {
	seen map[uint64]struct{}
}

// NewMemory returns an empty in-memory tracker.
func NewMemory() *MemoryTracker {
	return &MemoryTracker{seen: make(map[uint64]struct{})}
}

func (t *MemoryTracker) IsNew(_ context.Context, fp uint64) (bool, error) {
	if _, dup := t.seen[fp]; dup {
		return false, nil
	}
	t.seen[fp] = struct{}{}
	return true, nil
}

func (t *MemoryTracker) Len() int { return len(t.seen) }

func (t *MemoryTracker) Close() error { return nil }
