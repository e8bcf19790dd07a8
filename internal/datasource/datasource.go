// Package datasource defines the contract for byte-stream providers feeding
// the pipeline. Implementations live in subpackages (see file).
package datasource

import (
	"context"
	"io"
)

// Source yields the raw input stream for one run. Open may be called at most
// once per Source value.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
