package convert

import (
	"context"
	"sort"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/storage"
)

// Common (storage, format) coordinates the built-in converters connect.
var (
	memRecords  = storage.Pair{Kind: storage.KindMemory, Format: storage.FormatRecords}
	memColumnar = storage.Pair{Kind: storage.KindMemory, Format: storage.FormatColumnar}
	memStream   = storage.Pair{Kind: storage.KindMemory, Format: storage.FormatStream}
	fileRecords = storage.Pair{Kind: storage.KindFile, Format: storage.FormatRecords}
	tableRef    = storage.Pair{Kind: storage.KindTable, Format: storage.FormatTableRef}
)

// RegisterBuiltins installs the standard converter set: in-memory
// reshaping between records, columnar and stream, plus disk hops to
// file storage and the relational table store.
func RegisterBuiltins(r *Registry) error {
	builtins := []Converter{
		{
			Name:    "records-to-columnar",
			Inputs:  []storage.Pair{memRecords},
			Outputs: []storage.Pair{memColumnar},
			Cost:    CostMemory,
			Fn:      recordsToColumnar,
		},
		{
			Name:    "columnar-to-records",
			Inputs:  []storage.Pair{memColumnar},
			Outputs: []storage.Pair{memRecords},
			Cost:    CostMemory,
			Fn:      columnarToRecords,
		},
		{
			Name:    "stream-to-records",
			Inputs:  []storage.Pair{memStream},
			Outputs: []storage.Pair{memRecords},
			Cost:    CostMemory,
			Fn:      streamToRecords,
		},
		{
			Name:    "records-to-stream",
			Inputs:  []storage.Pair{memRecords},
			Outputs: []storage.Pair{memStream},
			Cost:    CostMemory,
			Fn:      recordsToStream,
		},
		{
			Name:    "records-to-file",
			Inputs:  []storage.Pair{memRecords},
			Outputs: []storage.Pair{fileRecords},
			Cost:    CostDisk,
			Fn:      passRecords,
		},
		{
			Name:    "file-to-records",
			Inputs:  []storage.Pair{fileRecords},
			Outputs: []storage.Pair{memRecords},
			Cost:    CostDisk,
			Fn:      passRecords,
		},
		{
			Name:    "records-to-table",
			Inputs:  []storage.Pair{memRecords},
			Outputs: []storage.Pair{tableRef},
			Cost:    CostDisk,
			Fn:      passRecords,
		},
		{
			Name:    "table-to-records",
			Inputs:  []storage.Pair{tableRef},
			Outputs: []storage.Pair{memRecords},
			Cost:    CostDisk,
			Fn:      tableToRecords,
		},
	}
	for _, c := range builtins {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// recordsToColumnar pivots rows into columns. Column order follows the
// block's schema; fields not declared there are appended in sorted
// order so the layout stays deterministic.
func recordsToColumnar(_ context.Context, job *Job) (any, error) {
	rows, err := asRecords(job.Value)
	if err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(job.Schema.Fields))
	seen := make(map[string]bool, len(job.Schema.Fields))
	for _, f := range job.Schema.Fields {
		columns = append(columns, f.Name)
		seen[f.Name] = true
	}
	var extra []string
	for _, rec := range rows {
		for name := range rec {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	sort.Strings(extra)
	columns = append(columns, extra...)

	return storage.FromRows(columns, rows), nil
}

func columnarToRecords(_ context.Context, job *Job) (any, error) {
	col, ok := job.Value.(storage.Columnar)
	if !ok {
		return nil, errors.InvalidInput("value", "expected Columnar")
	}
	return col.Rows(), nil
}

// streamToRecords collapses a lazy sequence. The stream is consumed;
// single-pass semantics mean the caller must use the materialized rows
// from here on.
func streamToRecords(ctx context.Context, job *Job) (any, error) {
	stream, ok := job.Value.(storage.RecordStream)
	if !ok {
		return nil, errors.InvalidInput("value", "expected RecordStream")
	}
	return storage.Drain(ctx, stream)
}

func recordsToStream(_ context.Context, job *Job) (any, error) {
	rows, err := asRecords(job.Value)
	if err != nil {
		return nil, err
	}
	return storage.StreamFromRecords(rows), nil
}

// passRecords forwards the row sequence unchanged; the write side of
// the hop does the actual persistence.
func passRecords(_ context.Context, job *Job) (any, error) {
	return asRecords(job.Value)
}

// tableToRecords follows a table handle and scans its rows.
func tableToRecords(ctx context.Context, job *Job) (any, error) {
	ref, ok := job.Value.(storage.TableRef)
	if !ok {
		return nil, errors.InvalidInput("value", "expected TableRef")
	}
	eng, err := job.Engines.Get(storage.KindTable)
	if err != nil {
		return nil, err
	}
	rows, err := eng.Read(ctx, ref.Table, storage.FormatRecords)
	if err != nil {
		return nil, err
	}
	return asRecords(rows)
}

func asRecords(v any) ([]storage.Record, error) {
	rows, ok := v.([]storage.Record)
	if !ok {
		return nil, errors.InvalidInput("value", "expected []Record")
	}
	return rows, nil
}
