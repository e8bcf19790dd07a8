package metrics

import (
	"errors"
	"testing"
	"time"
)

type capture struct {
	name   string
	value  float64
	labels Labels
}

type fakeBackend struct {
	counters   []capture
	histograms []capture
	flushed    int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.counters = append(f.counters, capture{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.histograms = append(f.histograms, capture{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.flushed++
	return nil
}

// withBackend swaps the global backend for the duration of a test. These
// tests mutate package state, so they must not run in parallel.
func withBackend(t *testing.T, b Backend) {
	t.Helper()
	prev := backend
	SetBackend(b)
	t.Cleanup(func() { backend = prev })
}

func TestRecordStep(t *testing.T) {
	fake := &fakeBackend{}
	withBackend(t, fake)

	RecordStep("data.csv", "transform", nil, 250*time.Millisecond)
	RecordStep("data.csv", "write", errors.New("disk full"), time.Second)

	if len(fake.counters) != 2 || len(fake.histograms) != 2 {
		t.Fatalf("counters=%d histograms=%d, want 2/2", len(fake.counters), len(fake.histograms))
	}
	if got := fake.counters[0]; got.name != "cleanr_step_total" || got.labels["status"] != "success" {
		t.Fatalf("first counter = %+v", got)
	}
	if got := fake.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("status = %q, want failure", got)
	}
	if got := fake.histograms[0]; got.name != "cleanr_step_duration_seconds" || got.value != 0.25 {
		t.Fatalf("first histogram = %+v", got)
	}
}

func TestRecordRows(t *testing.T) {
	fake := &fakeBackend{}
	withBackend(t, fake)

	RecordRows("data.csv", "duplicates", 3)
	RecordRows("data.csv", "written", 0)
	RecordRows("data.csv", "read", -1)

	if len(fake.counters) != 1 {
		t.Fatalf("zero/negative deltas should be skipped; got %+v", fake.counters)
	}
	got := fake.counters[0]
	if got.name != "cleanr_records_total" || got.value != 3 || got.labels["kind"] != "duplicates" {
		t.Fatalf("counter = %+v", got)
	}
}

func TestRecordChunks(t *testing.T) {
	fake := &fakeBackend{}
	withBackend(t, fake)

	RecordChunks("data.csv", 1)
	RecordChunks("data.csv", 0)

	if len(fake.counters) != 1 {
		t.Fatalf("counters = %+v", fake.counters)
	}
	if got := fake.counters[0]; got.name != "cleanr_chunks_total" || got.labels["job"] != "data.csv" {
		t.Fatalf("counter = %+v", got)
	}
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	fake := &fakeBackend{}
	withBackend(t, fake)

	SetBackend(nil)
	RecordChunks("data.csv", 1)

	if len(fake.counters) != 1 {
		t.Fatal("nil SetBackend replaced the active backend")
	}
}

func TestFlushDelegates(t *testing.T) {
	fake := &fakeBackend{}
	withBackend(t, fake)

	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if fake.flushed != 1 {
		t.Fatalf("flushed = %d", fake.flushed)
	}
}
