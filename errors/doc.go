// Package errors provides unified error handling for the blockflow runtime.
// It implements structured error types with machine-readable error codes so
// callers can classify failures (schema mismatch, missing conversion path,
// interface binding, storage I/O) without string matching.
package errors
