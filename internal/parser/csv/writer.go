package csv

import (
	stdcsv "encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"cleanr/internal/table"
)

// Writer appends cleaned fragments to a CSV sink, emitting the header once
// from the first fragment. Output is encoded with the same encoding the
// input was decoded with.
type Writer struct {
	sink        io.WriteCloser
	enc         io.WriteCloser // non-nil when an encoding transform is active
	cw          *stdcsv.Writer
	wroteHeader bool
	rows        int64
}

// NewWriter wraps sink with the given encoding (nil = UTF-8).
func NewWriter(sink io.WriteCloser, enc encoding.Encoding) *Writer {
	w := &Writer{sink: sink}
	var out io.Writer = sink
	if enc != nil {
		tw := transform.NewWriter(sink, enc.NewEncoder())
		w.enc = tw
		out = tw
	}
	w.cw = stdcsv.NewWriter(out)
	return w
}

// WriteHeader writes the header row explicitly. The runner uses it when the
// input has a header but no data rows, so the output still carries the
// cleaned header.
func (w *Writer) WriteHeader(names []string) error {
	if w.wroteHeader {
		return nil
	}
	if err := w.cw.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	w.wroteHeader = true
	return nil
}

// WriteFragment writes the fragment's rows, preceded by the header if this
// is the first fragment of the run. Missing cells render as empty fields;
// typed cells render through their canonical text form.
func (w *Writer) WriteFragment(fr *table.Fragment) error {
	if !w.wroteHeader {
		if err := w.cw.Write(fr.Names()); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		w.wroteHeader = true
	}

	n := fr.Len()
	record := make([]string, fr.Width())
	for i := 0; i < n; i++ {
		for c := range fr.Columns {
			record[c] = fr.Columns[c].Value(i).Text()
		}
		if err := w.cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.rows += int64(n)
	return nil
}

// Rows returns the number of data rows written so far.
func (w *Writer) Rows() int64 { return w.rows }

// Close flushes buffered rows and closes the sink. It must be called even
// after a failed run; partially written output is left in place by design.
func (w *Writer) Close() error {
	w.cw.Flush()
	err := w.cw.Error()
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := w.sink.Close(); err == nil {
		err = cerr
	}
	return err
}
