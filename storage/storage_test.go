package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blockflow/blockflow/errors"
)

func sampleRows() []Record {
	return []Record{
		{"id": float64(1), "name": "a"},
		{"id": float64(2), "name": "b"},
	}
}

func TestFormat_Streaming(t *testing.T) {
	if !FormatStream.Streaming() {
		t.Fatal("stream format must be streaming-capable")
	}
	for _, f := range []Format{FormatRecords, FormatColumnar, FormatTableRef} {
		if f.Streaming() {
			t.Fatalf("%s must not be streaming-capable", f)
		}
	}
}

func TestColumnar_RoundTrip(t *testing.T) {
	rows := sampleRows()
	c := FromRows([]string{"id", "name"}, rows)
	back := c.Rows()
	if !reflect.DeepEqual(rows, back) {
		t.Fatalf("round trip mismatch: %v vs %v", rows, back)
	}
}

func TestMemoryEngine(t *testing.T) {
	ctx := context.Background()
	eng := NewMemoryEngine()

	loc, err := eng.Write(ctx, "b1-records", FormatRecords, sampleRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := eng.Read(ctx, loc, FormatRecords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v, sampleRows()) {
		t.Fatalf("unexpected value: %v", v)
	}

	ok, err := eng.Exists(ctx, loc)
	if err != nil || !ok {
		t.Fatalf("expected locator to exist: %v", err)
	}
}

func TestMemoryEngine_ImmutableReplica(t *testing.T) {
	ctx := context.Background()
	eng := NewMemoryEngine()
	if _, err := eng.Write(ctx, "b1", FormatRecords, sampleRows()); err != nil {
		t.Fatal(err)
	}
	_, err := eng.Write(ctx, "b1", FormatRecords, sampleRows())
	if !errors.HasCode(err, errors.ErrCodeStorageIO) {
		t.Fatalf("expected STORAGE_IO on overwrite, got %v", err)
	}
}

func TestMemoryEngine_StreamReplicaRereadable(t *testing.T) {
	ctx := context.Background()
	eng := NewMemoryEngine()

	loc, err := eng.Write(ctx, "b1-stream", FormatStream, StreamFromRecords(sampleRows()))
	if err != nil {
		t.Fatal(err)
	}

	// The replica must survive being drained: every Read serves a fresh
	// stream over the stored rows.
	for i := 0; i < 2; i++ {
		v, err := eng.Read(ctx, loc, FormatStream)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Drain(ctx, v.(RecordStream))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, sampleRows()) {
			t.Fatalf("read %d lost rows: %v", i+1, got)
		}
	}
}

func TestMemoryEngine_FormatMismatch(t *testing.T) {
	ctx := context.Background()
	eng := NewMemoryEngine()
	loc, err := eng.Write(ctx, "b1", FormatRecords, sampleRows())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Read(ctx, loc, FormatColumnar); err == nil {
		t.Fatal("expected error reading with the wrong format")
	}
}

func TestFileEngine(t *testing.T) {
	ctx := context.Background()
	eng, err := NewFileEngine(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loc, err := eng.Write(ctx, "b1-records", FormatRecords, sampleRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := eng.Read(ctx, loc, FormatRecords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(v, sampleRows()) {
		t.Fatalf("unexpected value after file round trip: %v", v)
	}
}

func TestFileEngine_RejectsStream(t *testing.T) {
	ctx := context.Background()
	eng, err := NewFileEngine(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = eng.Write(ctx, "b1", FormatStream, StreamFromRecords(sampleRows()))
	if !errors.HasCode(err, errors.ErrCodeStorageIO) {
		t.Fatalf("expected STORAGE_IO, got %v", err)
	}
}

func TestBoltTableEngine(t *testing.T) {
	ctx := context.Background()
	eng, err := OpenBoltTableEngine(ctx, filepath.Join(t.TempDir(), "tables.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	loc, err := eng.Write(ctx, "txns_b1", FormatRecords, sampleRows())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc != "txns_b1" {
		t.Fatalf("expected table-name locator, got %q", loc)
	}

	ref, err := eng.Read(ctx, loc, FormatTableRef)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.(TableRef).Table != "txns_b1" {
		t.Fatalf("unexpected table ref: %v", ref)
	}

	rows, err := eng.Read(ctx, loc, FormatRecords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rows, sampleRows()) {
		t.Fatalf("unexpected rows: %v", rows)
	}

	_, err = eng.Write(ctx, "txns_b1", FormatRecords, sampleRows())
	if !errors.HasCode(err, errors.ErrCodeStorageIO) {
		t.Fatalf("expected STORAGE_IO on duplicate table, got %v", err)
	}
}

func TestStream_SinglePass(t *testing.T) {
	ctx := context.Background()
	s := StreamFromRecords(sampleRows())

	got, err := Drain(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	// Drained stream stays exhausted.
	if _, ok, _ := s.Next(ctx); ok {
		t.Fatal("stream must be single-pass")
	}
}

func TestSampleStream_Replay(t *testing.T) {
	ctx := context.Background()
	s := StreamFromRecords(sampleRows())

	sample, replay, err := SampleStream(ctx, s, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(sample) != 1 {
		t.Fatalf("expected 1 sampled record, got %d", len(sample))
	}

	all, err := Drain(ctx, replay)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(all, sampleRows()) {
		t.Fatalf("replay lost records: %v", all)
	}
}

func TestSampleStream_ShortInput(t *testing.T) {
	ctx := context.Background()
	s := StreamFromRecords(sampleRows())
	sample, replay, err := SampleStream(ctx, s, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sample) != 2 {
		t.Fatalf("expected full sample, got %d", len(sample))
	}
	all, err := Drain(ctx, replay)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected replay of 2 records, got %d", len(all))
	}
}

func TestEngines_Registry(t *testing.T) {
	engs := NewEngines()
	if err := engs.Register(NewMemoryEngine()); err != nil {
		t.Fatal(err)
	}
	if err := engs.Register(NewMemoryEngine()); !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
	if _, err := engs.Get(KindMemory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := engs.Get(KindFile); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
