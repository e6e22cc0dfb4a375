package boltmeta

import (
	"context"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/google/uuid"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

var (
	blocksBucket   = []byte("blocks")
	replicasBucket = []byte("replicas")
)

// Store is a bolt-backed metadata store.
type Store struct {
	db      *bolt.DB
	schemas *schema.Registry
}

// Open opens (or creates) the metadata database at path.
func Open(path string, schemas *schema.Registry) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.StorageIO("boltmeta", "open", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(replicasBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.StorageIO("boltmeta", "init", err)
	}
	return &Store{db: db, schemas: schemas}, nil
}

// Begin opens one writable bolt transaction as the runtime scope.
func (s *Store) Begin(_ context.Context) (block.Tx, error) {
	btx, err := s.db.Begin(true)
	if err != nil {
		return nil, errors.StorageIO("boltmeta", "begin", err)
	}
	return &tx{store: s, btx: btx}, nil
}

// Close syncs and closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Sync(); err != nil {
		return errors.StorageIO("boltmeta", "sync", err)
	}
	return s.db.Close()
}

type tx struct {
	store *Store
	btx   *bolt.Tx
	done  bool
}

func (t *tx) CreateBlock(nominalSchema string) (block.Block, error) {
	if err := t.open(); err != nil {
		return block.Block{}, err
	}
	if _, err := t.store.schemas.Get(nominalSchema); err != nil {
		return block.Block{}, err
	}
	b := block.Block{
		ID:            block.ID(uuid.NewString()),
		NominalSchema: nominalSchema,
		CreatedAt:     time.Now().UTC(),
	}
	if err := t.putBlock(b); err != nil {
		return block.Block{}, err
	}
	return b, nil
}

func (t *tx) GetBlock(id block.ID) (block.Block, error) {
	if err := t.open(); err != nil {
		return block.Block{}, err
	}
	data := t.btx.Bucket(blocksBucket).Get([]byte(id))
	if data == nil {
		return block.Block{}, errors.NotFound("block", string(id))
	}
	var b block.Block
	if err := json.Unmarshal(data, &b); err != nil {
		return block.Block{}, errors.StorageIO("boltmeta", "get block", err)
	}
	return b, nil
}

func (t *tx) RecordRealizedSchema(id block.ID, realizedSchema string) error {
	b, err := t.GetBlock(id)
	if err != nil {
		return err
	}
	realized, err := t.store.schemas.Get(realizedSchema)
	if err != nil {
		return err
	}
	nominal, err := t.store.schemas.Get(b.NominalSchema)
	if err != nil {
		return err
	}
	if !schema.Compatible(realized, nominal) {
		return errors.SchemaMismatch(b.NominalSchema, realizedSchema)
	}
	b.RealizedSchema = realizedSchema
	return t.putBlock(b)
}

func (t *tx) RegisterReplica(id block.ID, kind storage.Kind, format storage.Format, locator string) (block.Replica, error) {
	if _, err := t.GetBlock(id); err != nil {
		return block.Replica{}, err
	}
	bkt, err := t.btx.Bucket(replicasBucket).CreateBucketIfNotExists([]byte(id))
	if err != nil {
		return block.Replica{}, errors.StorageIO("boltmeta", "register replica", err)
	}
	pair := storage.Pair{Kind: kind, Format: format}
	if bkt.Get([]byte(pair.String())) != nil {
		return block.Replica{}, errors.AlreadyExists("replica", pair.String())
	}
	r := block.Replica{
		ID:        uuid.NewString(),
		BlockID:   id,
		Storage:   kind,
		Format:    format,
		Locator:   locator,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(r)
	if err != nil {
		return block.Replica{}, errors.StorageIO("boltmeta", "register replica", err)
	}
	if err := bkt.Put([]byte(pair.String()), data); err != nil {
		return block.Replica{}, errors.StorageIO("boltmeta", "register replica", err)
	}
	return r, nil
}

func (t *tx) FindReplica(id block.ID, kind storage.Kind, format storage.Format) (block.Replica, bool, error) {
	if err := t.open(); err != nil {
		return block.Replica{}, false, err
	}
	bkt := t.btx.Bucket(replicasBucket).Bucket([]byte(id))
	if bkt == nil {
		return block.Replica{}, false, nil
	}
	pair := storage.Pair{Kind: kind, Format: format}
	data := bkt.Get([]byte(pair.String()))
	if data == nil {
		return block.Replica{}, false, nil
	}
	var r block.Replica
	if err := json.Unmarshal(data, &r); err != nil {
		return block.Replica{}, false, errors.StorageIO("boltmeta", "find replica", err)
	}
	return r, true, nil
}

func (t *tx) ListReplicas(id block.ID) ([]block.Replica, error) {
	if err := t.open(); err != nil {
		return nil, err
	}
	bkt := t.btx.Bucket(replicasBucket).Bucket([]byte(id))
	if bkt == nil {
		return nil, nil
	}
	var replicas []block.Replica
	err := bkt.ForEach(func(_, v []byte) error {
		var r block.Replica
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		replicas = append(replicas, r)
		return nil
	})
	if err != nil {
		return nil, errors.StorageIO("boltmeta", "list replicas", err)
	}
	return replicas, nil
}

func (t *tx) Commit() error {
	if err := t.open(); err != nil {
		return err
	}
	t.done = true
	if err := t.btx.Commit(); err != nil {
		return errors.StorageIO("boltmeta", "commit", err)
	}
	return nil
}

func (t *tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.btx.Rollback(); err != nil {
		return errors.StorageIO("boltmeta", "rollback", err)
	}
	return nil
}

func (t *tx) open() error {
	if t.done {
		return errors.New(errors.ErrCodeInternal, "transaction already finished")
	}
	return nil
}

func (t *tx) putBlock(b block.Block) error {
	data, err := json.Marshal(b)
	if err != nil {
		return errors.StorageIO("boltmeta", "put block", err)
	}
	if err := t.btx.Bucket(blocksBucket).Put([]byte(b.ID), data); err != nil {
		return errors.StorageIO("boltmeta", "put block", err)
	}
	return nil
}
