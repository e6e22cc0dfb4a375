// Package observability wires OpenTelemetry tracing and metrics for the
// runtime: spans around node executions and conversion resolutions, and
// counters for produced blocks, executed hops and failures. Both
// providers export over OTLP HTTP. Every instrument holder is nil-safe
// so an engine without observability configured records nothing.
package observability
