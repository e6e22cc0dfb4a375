// Package block implements the data-block model: durable logical blocks
// with nominal and realized schemas, and the append-only bookkeeping of
// their physical replicas across storage backends. All mutations run
// inside a metadata transaction; nothing is visible outside it until
// commit.
package block
