package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// SQLite driver; replace with your preferred driver if desired.
	_ "modernc.org/sqlite"
)

// SQLiteTracker keeps the fingerprint set in a SQLite database instead of
// process memory, bounding resident memory for inputs whose distinct-row
// count is too large for the in-memory tracker. It is markedly slower (one
// statement per row) and only worth it when memory is the constraint.
type SQLiteTracker struct {
	db     *sql.DB
	insert *sql.Stmt
}

// NewSQLite opens (or creates) the fingerprint index at path.
//
// The path is passed directly to database/sql; a plain filename works, as
// does a DSN like "file:fp.db?cache=shared".
func NewSQLite(ctx context.Context, path string) (*SQLiteTracker, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dedup index: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dedup index: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: ping: %w", err)
	}

	// Durability is irrelevant here: the index is rebuilt from scratch each
	// run, so favor throughput.
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode = WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous = OFF;")

	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS fingerprints (fp INTEGER PRIMARY KEY) WITHOUT ROWID",
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: create table: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM fingerprints"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: reset: %w", err)
	}

	insert, err := db.PrepareContext(ctx, "INSERT OR IGNORE INTO fingerprints (fp) VALUES (?)")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("dedup index: prepare insert: %w", err)
	}

	return &SQLiteTracker{db: db, insert: insert}, nil
}

// IsNew inserts the fingerprint and reports whether it was absent before.
// INSERT OR IGNORE plus the rows-affected count makes the check and the
// record a single statement.
func (t *SQLiteTracker) IsNew(ctx context.Context, fp uint64) (bool, error) {
	// SQLite integers are signed 64-bit; the cast is a lossless bit pattern.
	res, err := t.insert.ExecContext(ctx, int64(fp))
	if err != nil {
		return false, fmt.Errorf("dedup index: insert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("dedup index: rows affected: %w", err)
	}
	return n == 1, nil
}

// Len returns -1: counting would be a full scan on every call.
func (t *SQLiteTracker) Len() int { return -1 }

func (t *SQLiteTracker) Close() error {
	if t.insert != nil {
		_ = t.insert.Close()
	}
	return t.db.Close()
}
