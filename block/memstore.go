package block

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

// MemStore is the in-memory metadata store. A transaction works on a
// copy of the committed state and swaps it in on Commit, so partial
// writes never leak. Single-writer: one open transaction at a time,
// matching the runtime's sequential node execution.
type MemStore struct {
	mu       sync.Mutex
	schemas  *schema.Registry
	blocks   map[ID]Block
	replicas map[ID][]Replica
}

// NewMemStore creates an empty in-memory metadata store using the given
// schema registry for compatibility checks.
func NewMemStore(schemas *schema.Registry) *MemStore {
	return &MemStore{
		schemas:  schemas,
		blocks:   make(map[ID]Block),
		replicas: make(map[ID][]Replica),
	}
}

// Begin opens a transactional scope over a snapshot of current state.
func (s *MemStore) Begin(_ context.Context) (Tx, error) {
	s.mu.Lock()
	tx := &memTx{store: s}
	tx.blocks = make(map[ID]Block, len(s.blocks))
	for id, b := range s.blocks {
		tx.blocks[id] = b
	}
	tx.replicas = make(map[ID][]Replica, len(s.replicas))
	for id, rs := range s.replicas {
		tx.replicas[id] = append([]Replica(nil), rs...)
	}
	return tx, nil
}

// Close releases the store.
func (s *MemStore) Close() error { return nil }

type memTx struct {
	store    *MemStore
	blocks   map[ID]Block
	replicas map[ID][]Replica
	done     bool
}

func (tx *memTx) CreateBlock(nominalSchema string) (Block, error) {
	if err := tx.open(); err != nil {
		return Block{}, err
	}
	if _, err := tx.store.schemas.Get(nominalSchema); err != nil {
		return Block{}, err
	}
	b := Block{
		ID:            ID(uuid.NewString()),
		NominalSchema: nominalSchema,
		CreatedAt:     time.Now().UTC(),
	}
	tx.blocks[b.ID] = b
	return b, nil
}

func (tx *memTx) GetBlock(id ID) (Block, error) {
	if err := tx.open(); err != nil {
		return Block{}, err
	}
	b, ok := tx.blocks[id]
	if !ok {
		return Block{}, errors.NotFound("block", string(id))
	}
	return b, nil
}

func (tx *memTx) RecordRealizedSchema(id ID, realizedSchema string) error {
	if err := tx.open(); err != nil {
		return err
	}
	b, ok := tx.blocks[id]
	if !ok {
		return errors.NotFound("block", string(id))
	}
	realized, err := tx.store.schemas.Get(realizedSchema)
	if err != nil {
		return err
	}
	nominal, err := tx.store.schemas.Get(b.NominalSchema)
	if err != nil {
		return err
	}
	if !schema.Compatible(realized, nominal) {
		return errors.SchemaMismatch(b.NominalSchema, realizedSchema)
	}
	b.RealizedSchema = realizedSchema
	tx.blocks[id] = b
	return nil
}

func (tx *memTx) RegisterReplica(id ID, kind storage.Kind, format storage.Format, locator string) (Replica, error) {
	if err := tx.open(); err != nil {
		return Replica{}, err
	}
	if _, ok := tx.blocks[id]; !ok {
		return Replica{}, errors.NotFound("block", string(id))
	}
	for _, existing := range tx.replicas[id] {
		if existing.Storage == kind && existing.Format == format {
			return Replica{}, errors.AlreadyExists("replica", existing.Pair().String())
		}
	}
	r := Replica{
		ID:        uuid.NewString(),
		BlockID:   id,
		Storage:   kind,
		Format:    format,
		Locator:   locator,
		CreatedAt: time.Now().UTC(),
	}
	tx.replicas[id] = append(tx.replicas[id], r)
	return r, nil
}

func (tx *memTx) FindReplica(id ID, kind storage.Kind, format storage.Format) (Replica, bool, error) {
	if err := tx.open(); err != nil {
		return Replica{}, false, err
	}
	for _, r := range tx.replicas[id] {
		if r.Storage == kind && r.Format == format {
			return r, true, nil
		}
	}
	return Replica{}, false, nil
}

func (tx *memTx) ListReplicas(id ID) ([]Replica, error) {
	if err := tx.open(); err != nil {
		return nil, err
	}
	return append([]Replica(nil), tx.replicas[id]...), nil
}

func (tx *memTx) Commit() error {
	if err := tx.open(); err != nil {
		return err
	}
	tx.store.blocks = tx.blocks
	tx.store.replicas = tx.replicas
	tx.done = true
	tx.store.mu.Unlock()
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.mu.Unlock()
	return nil
}

func (tx *memTx) open() error {
	if tx.done {
		return errors.New(errors.ErrCodeInternal, "transaction already finished")
	}
	return nil
}
