package storage

import "fmt"

// Kind identifies a storage backend class.
type Kind string

const (
	// KindMemory is an in-process keyed object store.
	KindMemory Kind = "memory"
	// KindTable is a relational-style table store.
	KindTable Kind = "table"
	// KindFile is a file-per-replica store.
	KindFile Kind = "file"
)

// Format identifies how a replica's data is represented.
type Format string

const (
	// FormatRecords is a fully materialized row sequence ([]Record).
	FormatRecords Format = "records"
	// FormatColumnar is a fully materialized column table (Columnar).
	FormatColumnar Format = "columnar"
	// FormatStream is a lazy, single-pass, pull-based record sequence
	// (RecordStream).
	FormatStream Format = "stream"
	// FormatTableRef is an opaque reference to a table in a table store
	// (TableRef).
	FormatTableRef Format = "tableref"
)

// Streaming reports whether the format exposes a single-pass pull
// iterator rather than a fully materialized value.
func (f Format) Streaming() bool {
	return f == FormatStream
}

// Pair is a (storage kind, data format) coordinate. Pairs are the nodes
// of the conversion graph.
type Pair struct {
	Kind   Kind   `json:"kind"`
	Format Format `json:"format"`
}

// String renders the pair as kind/format.
func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Kind, p.Format)
}

// Streaming reports whether the pair's format is streaming-capable.
func (p Pair) Streaming() bool {
	return p.Format.Streaming()
}
