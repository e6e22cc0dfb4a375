// Package resilience provides retry with exponential backoff for
// transient storage failures: bolt lock contention on open, interrupted
// file writes. Deterministic failures (bad format, missing locator) are
// never retried.
package resilience
