// Package pipeline contains the chunked cleaning execution logic.
//
// The runner wires the file source, the chunked CSV reader, the canonical
// transform chain, the dedup tracker, the type optimizer, and the CSV writer
// into one strictly sequential loop:
//
//	read chunk → transform → dedup → optimize types → write chunk
//
// Chunks are processed one at a time, in order, on a single goroutine. There
// is no concurrent chunk processing because the dedup tracker must observe
// rows in arrival order for first-occurrence-wins semantics to be
// deterministic. Output row order always equals input row order with dropped
// rows omitted.
//
// Failure semantics are deliberately simple: a fatal error during chunk N
// aborts the run and reports N, but output for chunks 1..N-1 has already
// been flushed and stays in place. There is no rollback; callers that need
// all-or-nothing should write to a temporary path and rename on success.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cleanr/internal/config"
	"cleanr/internal/datasource/file"
	"cleanr/internal/dedup"
	"cleanr/internal/metrics"
	csvparser "cleanr/internal/parser/csv"
	"cleanr/internal/schema"
	"cleanr/internal/table"
	"cleanr/internal/transform"
)

// State is the runner's coarse position in its lifecycle, mostly useful for
// error reporting and tests.
type State uint8

const (
	StateIdle State = iota
	StateReading
	StateTransforming
	StateWriting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateTransforming:
		return "transforming"
	case StateWriting:
		return "writing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Summary holds the run's final statistics. It is only complete after Run
// returns.
type Summary struct {
	RowsRead       int64
	RowsWritten    int64
	Duplicates     int64 // rows dropped as duplicates
	MissingDropped int64 // rows dropped by drop-na
	ParseErrors    int64 // source lines the CSV parser rejected (skipped)
	Anomalies      int64 // recovered row-level irregularities (e.g. short splits)
	Chunks         int
	Columns        int
	Output         string
	Elapsed        time.Duration
}

// ConfigError marks a failure detected while building the run, before any
// chunk was processed and before any output was written.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return "configuration: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// RunError marks a fatal failure during chunk processing. Chunk is the
// 1-based index of the chunk being processed when the failure occurred;
// output for earlier chunks has already been flushed.
type RunError struct {
	Chunk int
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("chunk %d: %s: %v", e.Chunk, e.Stage, e.Err)
}
func (e *RunError) Unwrap() error { return e.Err }

// Runner executes one cleaning run described by an immutable Spec.
type Runner struct {
	spec  config.Spec
	state State
	sum   Summary
}

// New returns an idle runner for the given spec. The spec is copied by
// value; the runner never shares mutable state with its caller beyond the
// final Summary.
func New(spec config.Spec) *Runner {
	return &Runner{spec: spec}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State { return r.state }

// Run executes the pipeline until the input is exhausted or a fatal error
// occurs. It returns the run summary in both cases; on error the summary
// reflects what was processed before the failure.
//
// Errors of type *ConfigError were detected before any chunk was read;
// everything else is a runtime failure with partial output on disk.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	err := r.run(ctx)
	r.sum.Elapsed = time.Since(start)
	if err != nil {
		r.state = StateFailed
	} else {
		r.state = StateDone
	}
	r.report(err)
	return r.sum, err
}

func (r *Runner) run(ctx context.Context) error {
	spec := r.spec
	job := jobName(spec.Input)

	enc, err := csvparser.ResolveEncoding(spec.Encoding)
	if err != nil {
		return &ConfigError{Err: err}
	}

	src, err := file.NewLocal(spec.Input).Open(ctx)
	if err != nil {
		return &ConfigError{Err: err}
	}

	reader, err := csvparser.NewReader(src, enc, func(line int, rerr error) {
		r.sum.ParseErrors++
		if !spec.Quiet {
			log.Printf("reader: line %d skipped: %v", line, rerr)
		}
	})
	if err != nil {
		src.Close()
		return &RunError{Chunk: 0, Stage: "read header", Err: err}
	}
	defer reader.Close()

	chain, err := transform.NewChain(spec, reader.Header())
	if err != nil {
		return &ConfigError{Err: err}
	}
	r.sum.Columns = len(chain.Header())

	var tracker dedup.Tracker
	if spec.Dedup {
		if spec.DedupIndex != "" {
			tracker, err = dedup.NewSQLite(ctx, spec.DedupIndex)
			if err != nil {
				return &ConfigError{Err: err}
			}
		} else {
			tracker = dedup.NewMemory()
		}
		defer tracker.Close()
	}

	outPath := spec.Output
	if outPath == "" {
		outPath = file.DeriveOutputPath(spec.Input)
	}
	r.sum.Output = outPath
	sink, err := os.Create(outPath)
	if err != nil {
		return &RunError{Chunk: 0, Stage: "create output", Err: err}
	}
	writer := csvparser.NewWriter(sink, enc)

	var hasher dedup.Hasher
	var rowScratch []table.Cell

	chunk := 0
	for {
		// Cooperative cancel: between chunks only, leaving output written
		// so far intact.
		select {
		case <-ctx.Done():
			writer.Close()
			return ctx.Err()
		default:
		}

		chunk++
		r.state = StateReading
		t0 := time.Now()
		fr, err := reader.ReadChunk(spec.ChunkSize)
		metrics.RecordStep(job, "read", ignoreEOF(err), time.Since(t0))
		if err == io.EOF {
			chunk--
			break
		}
		if err != nil {
			writer.Close()
			stage := "read"
			var derr *csvparser.DecodeError
			if errors.As(err, &derr) {
				stage = "decode"
			}
			return &RunError{Chunk: chunk, Stage: stage, Err: err}
		}
		rows := int64(fr.Len())
		r.sum.RowsRead += rows

		r.state = StateTransforming
		t0 = time.Now()
		stats := chain.Apply(fr)
		r.sum.MissingDropped += int64(stats.RowsDropped)
		r.sum.Anomalies += int64(stats.Anomalies)

		if tracker != nil {
			keep := make([]bool, fr.Len())
			for i := range keep {
				rowScratch = fr.Row(i, rowScratch[:0])
				isNew, derr := tracker.IsNew(ctx, hasher.Sum(rowScratch))
				if derr != nil {
					writer.Close()
					return &RunError{Chunk: chunk, Stage: "dedup", Err: derr}
				}
				keep[i] = isNew
			}
			r.sum.Duplicates += int64(fr.Filter(keep))
		}

		if !spec.Quick {
			schema.Optimize(fr)
		}
		metrics.RecordStep(job, "transform", nil, time.Since(t0))

		r.state = StateWriting
		t0 = time.Now()
		werr := writer.WriteFragment(fr)
		metrics.RecordStep(job, "write", werr, time.Since(t0))
		if werr != nil {
			writer.Close()
			return &RunError{Chunk: chunk, Stage: "write", Err: werr}
		}

		r.sum.RowsWritten += int64(fr.Len())
		r.sum.Chunks++
		metrics.RecordChunks(job, 1)
		if !spec.Quiet {
			log.Printf("chunk %d: read=%d written=%d dropped=%d",
				chunk, rows, fr.Len(), rows-int64(fr.Len()))
		}
	}

	// A header-only input still produces a cleaned header line.
	if err := writer.WriteHeader(chain.Header()); err != nil {
		writer.Close()
		return &RunError{Chunk: chunk, Stage: "write", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &RunError{Chunk: chunk, Stage: "write", Err: err}
	}

	metrics.RecordRows(job, "read", r.sum.RowsRead)
	metrics.RecordRows(job, "written", r.sum.RowsWritten)
	metrics.RecordRows(job, "duplicates", r.sum.Duplicates)
	metrics.RecordRows(job, "missing_dropped", r.sum.MissingDropped)
	metrics.RecordRows(job, "parse_errors", r.sum.ParseErrors)
	metrics.RecordRows(job, "anomalies", r.sum.Anomalies)
	return nil
}

func (r *Runner) report(err error) {
	if r.spec.Quiet {
		return
	}
	if err != nil {
		log.Printf("run failed after %s: %v", r.sum.Elapsed.Truncate(time.Millisecond), err)
		return
	}
	log.Printf("done: %s | %d rows x %d cols | chunks=%d dropped(dup=%d na=%d) skipped=%d | %s",
		r.sum.Output, r.sum.RowsWritten, r.sum.Columns, r.sum.Chunks,
		r.sum.Duplicates, r.sum.MissingDropped, r.sum.ParseErrors,
		r.sum.Elapsed.Truncate(time.Millisecond))
}

// jobName derives the metrics job label from the input filename.
func jobName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ignoreEOF maps io.EOF to nil so end-of-input is not recorded as a failed
// read step.
func ignoreEOF(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}
