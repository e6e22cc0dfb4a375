package block

import (
	"context"

	"github.com/blockflow/blockflow/storage"
)

// Store is the metadata persistence contract: transactional get/put of
// block, replica and schema records. Any transactional key-value or
// relational store can satisfy it.
type Store interface {
	// Begin opens a transactional scope. Every engine node execution runs
	// inside exactly one scope: open, run, commit on success, roll back on
	// failure.
	Begin(ctx context.Context) (Tx, error)
	// Close releases the store.
	Close() error
}

// Tx is one open transactional scope over the metadata store. No mutation
// is visible outside the scope before Commit.
type Tx interface {
	// CreateBlock creates a block with the given nominal schema key.
	CreateBlock(nominalSchema string) (Block, error)
	// GetBlock retrieves a block by id.
	GetBlock(id ID) (Block, error)
	// RecordRealizedSchema records the schema inferred from the block's
	// actual data. Fails with SCHEMA_MISMATCH if it is incompatible with
	// the nominal schema.
	RecordRealizedSchema(id ID, realizedSchema string) error
	// RegisterReplica appends a replica to the block's replica set.
	// Registering a second replica at the same (storage, format) fails
	// with ALREADY_EXISTS: conversion creates, never edits.
	RegisterReplica(id ID, kind storage.Kind, format storage.Format, locator string) (Replica, error)
	// FindReplica returns the block's replica at the (storage, format)
	// coordinate, if one exists.
	FindReplica(id ID, kind storage.Kind, format storage.Format) (Replica, bool, error)
	// ListReplicas returns all replicas of the block.
	ListReplicas(id ID) ([]Replica, error)

	// Commit makes the scope's mutations durable.
	Commit() error
	// Rollback discards the scope's mutations. Safe to call after Commit
	// as a no-op, which keeps defer-based cleanup simple.
	Rollback() error
}
