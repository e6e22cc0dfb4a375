package storage

import (
	"context"

	"github.com/blockflow/blockflow/errors"
)

// Record is one row of data, keyed by field name.
type Record = map[string]any

// Columnar is a fully materialized column table.
type Columnar struct {
	Columns []string `json:"columns"`
	Values  [][]any  `json:"values"`
}

// Rows converts the columnar table back to a row sequence.
func (c Columnar) Rows() []Record {
	rows := make([]Record, 0, len(c.Values))
	for _, vals := range c.Values {
		rec := make(Record, len(c.Columns))
		for i, col := range c.Columns {
			if i < len(vals) {
				rec[col] = vals[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows
}

// FromRows builds a columnar table from a row sequence using the given
// column order.
func FromRows(columns []string, rows []Record) Columnar {
	c := Columnar{Columns: columns}
	for _, rec := range rows {
		vals := make([]any, len(columns))
		for i, col := range columns {
			vals[i] = rec[col]
		}
		c.Values = append(c.Values, vals)
	}
	return c
}

// TableRef is an opaque reference to a table held by a table store.
type TableRef struct {
	Table string `json:"table"`
}

// RecordStream provides pull-based, single-pass access to a sequence of
// records. Next returns (nil, false, nil) when the stream is exhausted.
type RecordStream interface {
	Next(ctx context.Context) (Record, bool, error)
	Close() error
}

// --- stream helpers ---

type sliceStream struct {
	records []Record
	pos     int
}

// StreamFromRecords creates a RecordStream over an in-memory row
// sequence.
func StreamFromRecords(records []Record) RecordStream {
	return &sliceStream{records: records}
}

func (s *sliceStream) Next(_ context.Context) (Record, bool, error) {
	if s.pos >= len(s.records) {
		return nil, false, nil
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, true, nil
}

func (s *sliceStream) Close() error { return nil }

// StreamFunc creates a RecordStream from a generator function. The
// function is pulled once per Next and signals exhaustion by returning
// (nil, false, nil).
func StreamFunc(fn func(ctx context.Context) (Record, bool, error)) RecordStream {
	return &funcStream{fn: fn}
}

type funcStream struct {
	fn   func(ctx context.Context) (Record, bool, error)
	done bool
}

func (s *funcStream) Next(ctx context.Context) (Record, bool, error) {
	if s.done {
		return nil, false, nil
	}
	rec, ok, err := s.fn(ctx)
	if err != nil || !ok {
		s.done = true
	}
	return rec, ok, err
}

func (s *funcStream) Close() error {
	s.done = true
	return nil
}

// Drain pulls the stream to exhaustion and returns all records. The
// stream is closed afterwards.
func Drain(ctx context.Context, s RecordStream) ([]Record, error) {
	defer s.Close()
	var records []Record
	for {
		rec, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		records = append(records, rec)
	}
}

// SampleStream reads up to n records ahead for inspection (schema
// inference) and returns the sample plus a replacement stream that
// replays the sampled records before continuing with the remainder.
// Single-pass semantics are preserved: the original stream must not be
// pulled again by the caller.
func SampleStream(ctx context.Context, s RecordStream, n int) ([]Record, RecordStream, error) {
	if n <= 0 {
		return nil, s, errors.InvalidInput("n", "sample size must be positive")
	}
	var sample []Record
	for len(sample) < n {
		rec, ok, err := s.Next(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return sample, StreamFromRecords(sample), nil
		}
		sample = append(sample, rec)
	}
	return sample, &replayStream{head: sample, tail: s}, nil
}

type replayStream struct {
	head []Record
	pos  int
	tail RecordStream
}

func (r *replayStream) Next(ctx context.Context) (Record, bool, error) {
	if r.pos < len(r.head) {
		rec := r.head[r.pos]
		r.pos++
		return rec, true, nil
	}
	return r.tail.Next(ctx)
}

func (r *replayStream) Close() error {
	return r.tail.Close()
}
