// Package file implements the local filesystem data source and the output
// path policy.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cleanr/internal/datasource"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

var _ datasource.Source = (*Local)(nil)

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open
//     returns the context error immediately without touching the filesystem.
//   - Filesystem errors are wrapped with the path for context while still
//     permitting errors.Is/As checks (e.g. errors.Is(err, os.ErrNotExist)).
//   - On linux the kernel is hinted that the file will be read sequentially
//     front to back, which improves readahead for large inputs. The hint is
//     best-effort and its failure is ignored.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// DeriveOutputPath returns the default destination for a cleaned copy of
// input: "<stem>_clean<ext>" in the same directory.
func DeriveOutputPath(input string) string {
	dir := filepath.Dir(input)
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"_clean"+ext)
}
