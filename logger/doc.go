// Package logger provides structured logging for the blockflow runtime,
// wrapping zerolog with component tagging and field helpers used by the
// engine, the conversion registry, and the metadata stores.
package logger
