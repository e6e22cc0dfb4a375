// Package engine schedules pipe executions over a dependency graph.
// Producing a node recomputes its whole transitive upstream closure in
// topological order, runs every node inside its own metadata
// transaction, and drives repeatable pipes to exhaustion. Composite
// chain nodes are expanded once at build time into internal nodes wired
// head-to-tail; the expansion table is cached and never recomputed per
// call.
package engine
