// Package boltmeta persists block and replica metadata in a bolt
// database. Each runtime transaction maps to one writable bolt
// transaction, giving the engine real commit/rollback semantics for its
// per-node scopes.
package boltmeta
