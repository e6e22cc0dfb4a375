package block

import (
	"time"

	"github.com/blockflow/blockflow/storage"
)

// ID identifies a logical block.
type ID string

// Block is the logical unit of output from one pipe invocation. It has
// exactly one nominal schema and, once materialized, a realized schema
// that must be compatible with the nominal one.
type Block struct {
	ID ID `json:"id"`
	// NominalSchema is the declared/expected schema key.
	NominalSchema string `json:"nominal_schema"`
	// RealizedSchema is the schema key inferred from actual data. Empty
	// until the block is materialized.
	RealizedSchema string    `json:"realized_schema,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Realized reports whether the block has a realized schema recorded.
func (b Block) Realized() bool {
	return b.RealizedSchema != ""
}

// Replica is a physical materialization of a block in one
// (storage, format) pair. Replicas are immutable once written.
type Replica struct {
	ID        string         `json:"id"`
	BlockID   ID             `json:"block_id"`
	Storage   storage.Kind   `json:"storage"`
	Format    storage.Format `json:"format"`
	Locator   string         `json:"locator"`
	CreatedAt time.Time      `json:"created_at"`
}

// Pair returns the replica's (storage, format) coordinate.
func (r Replica) Pair() storage.Pair {
	return storage.Pair{Kind: r.Storage, Format: r.Format}
}
