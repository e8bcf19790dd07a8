// Package csv turns a CSV byte stream into bounded table fragments and
// writes cleaned fragments back out, including the character-encoding
// conversion on both sides.
//
// The reader is deliberately tolerant: it reuses record buffers, accepts
// lazy quotes and variable field counts, strips a leading BOM, and pads or
// truncates data rows to the header width so downstream transforms can rely
// on stable column indexes. Lines the parser cannot make sense of are
// soft-dropped through the onErr callback and counted by the caller; only
// I/O and encoding failures abort the read.
package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"cleanr/internal/table"
)

// DecodeError reports a line whose bytes could not be decoded with the
// configured encoding. Unlike parse errors, decoding failures are fatal: once
// the byte stream and the character stream disagree, every later line is
// suspect.
type DecodeError struct {
	Line int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: input is not decodable with the configured encoding", e.Line)
}

// Reader reads a CSV file as a sequence of bounded fragments.
type Reader struct {
	src     io.ReadCloser
	cr      *stdcsv.Reader
	header  []string
	line    int
	decoded bool // an explicit encoding transform is active
	onErr   func(line int, err error)
}

// NewReader wraps src with the given encoding (nil = UTF-8), reads the
// header line, and returns a Reader positioned at the first data row.
//
// onErr receives recoverable row errors (soft-drop); it may be nil.
func NewReader(src io.ReadCloser, enc encoding.Encoding, onErr func(line int, err error)) (*Reader, error) {
	var in io.Reader = src
	if enc != nil {
		in = transform.NewReader(src, enc.NewDecoder())
	}

	cr := stdcsv.NewReader(in)
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // tolerant; width is enforced against the header

	r := &Reader{src: src, cr: cr, decoded: enc != nil, onErr: onErr}

	rec, err := r.read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("read header: file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := r.checkDecodable(rec); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make([]string, len(rec))
	for i, h := range rec {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF") // strip BOM
		}
		header[i] = strings.TrimSpace(h)
	}
	r.header = header
	return r, nil
}

// Header returns the raw (edge-trimmed) header labels as read from the file.
func (r *Reader) Header() []string { return r.header }

// Line returns the current 1-based physical line position, for error
// reporting.
func (r *Reader) Line() int { return r.line }

func (r *Reader) read() ([]string, error) {
	r.line++
	return r.cr.Read()
}

// checkDecodable rejects records carrying undecodable input. With an explicit
// encoding the x/text decoders substitute U+FFFD for bytes they cannot map,
// so a replacement rune in the decoded stream marks undecodable source bytes;
// on the plain UTF-8 path no decoder runs and the bytes are validated
// directly.
func (r *Reader) checkDecodable(rec []string) error {
	for _, v := range rec {
		if r.decoded {
			if strings.ContainsRune(v, utf8.RuneError) {
				return &DecodeError{Line: r.line}
			}
		} else if !utf8.ValidString(v) {
			return &DecodeError{Line: r.line}
		}
	}
	return nil
}

// ReadChunk reads up to n data rows into a fresh fragment whose columns
// carry the header names. n <= 0 means "the whole remaining file", which
// models the unchunked mode as a single synthetic chunk.
//
// Source fields that are empty become missing markers. Rows wider than the
// header are truncated; narrower rows are padded with missing markers.
//
// Returns io.EOF (and a nil fragment) once the input is exhausted. Parse
// errors on individual lines are reported via onErr and skipped; any other
// error is fatal and returned as-is.
func (r *Reader) ReadChunk(n int) (*table.Fragment, error) {
	width := len(r.header)
	cols := make([]table.Column, width)
	for i := range cols {
		cols[i] = table.Column{Name: r.header[i]}
	}

	rows := 0
	for n <= 0 || rows < n {
		rec, err := r.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *stdcsv.ParseError
			if errors.As(err, &perr) {
				// Malformed line: soft-drop and keep going.
				if r.onErr != nil {
					r.onErr(r.line, err)
				}
				continue
			}
			// I/O failure: the rest of the stream is suspect.
			return nil, err
		}
		if derr := r.checkDecodable(rec); derr != nil {
			return nil, derr
		}

		for i := range cols {
			var v string
			if i < len(rec) {
				v = rec[i]
			}
			if v == "" {
				cols[i].Cells = append(cols[i].Cells, table.MissingCell)
			} else {
				cols[i].Cells = append(cols[i].Cells, table.StringCell(v))
			}
		}
		rows++
	}

	if rows == 0 {
		return nil, io.EOF
	}
	return &table.Fragment{Columns: cols}, nil
}

// Close closes the underlying source.
func (r *Reader) Close() error { return r.src.Close() }
