package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/resilience"
	"github.com/blockflow/blockflow/util"
)

// BoltTableEngine backs the relational-table storage kind with a bolt
// database: one bucket per table, rows JSON-encoded under monotonic
// sequence keys. A TableRef-format read returns the table handle
// without touching row data.
type BoltTableEngine struct {
	db *bolt.DB
}

// OpenBoltTableEngine opens (or creates) the table store at path. Lock
// contention with another holder of the file is transient, so the open
// is retried with backoff.
func OpenBoltTableEngine(ctx context.Context, path string) (*BoltTableEngine, error) {
	db, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*bolt.DB, error) {
		return bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	})
	if err != nil {
		return nil, errors.StorageIO(string(KindTable), "open", err)
	}
	return &BoltTableEngine{db: db}, nil
}

// Close syncs and closes the underlying bolt database.
func (b *BoltTableEngine) Close() error {
	if err := b.db.Sync(); err != nil {
		return errors.StorageIO(string(KindTable), "sync", err)
	}
	return b.db.Close()
}

// Kind returns KindTable.
func (b *BoltTableEngine) Kind() Kind { return KindTable }

// Write creates the table named key and inserts the rows. Both the
// records and tableref formats ingest a materialized row sequence; the
// conversion engine collapses other formats first. The locator is the
// table name.
func (b *BoltTableEngine) Write(_ context.Context, key string, format Format, v any) (string, error) {
	if format != FormatRecords && format != FormatTableRef {
		return "", errors.StorageIO(string(KindTable), "write",
			errors.InvalidInput("format", "table storage ingests record rows"))
	}
	records, ok := v.([]Record)
	if !ok {
		return "", errors.StorageIO(string(KindTable), "write",
			errors.InvalidInput("value", "expected []Record"))
	}

	key = util.SafeName(key)
	err := b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(key)) != nil {
			return errors.AlreadyExists("table", key)
		}
		bkt, err := tx.CreateBucket([]byte(key))
		if err != nil {
			return err
		}
		for _, rec := range records {
			id, err := bkt.NextSequence()
			if err != nil {
				return err
			}
			rowKey := make([]byte, 8)
			binary.BigEndian.PutUint64(rowKey, id)
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := bkt.Put(rowKey, data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", errors.StorageIO(string(KindTable), "write", err)
	}
	return key, nil
}

// Read resolves a table locator. TableRef returns the handle; records
// and stream formats scan the rows (the stream is a snapshot of the
// committed rows, preserving single-pass pull semantics for consumers).
func (b *BoltTableEngine) Read(_ context.Context, locator string, format Format) (any, error) {
	if format == FormatTableRef {
		exists, err := b.tableExists(locator)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, errors.StorageIO(string(KindTable), "read", errors.NotFound("table", locator))
		}
		return TableRef{Table: locator}, nil
	}

	if format != FormatRecords && format != FormatStream {
		return nil, errors.StorageIO(string(KindTable), "read",
			errors.InvalidInput("format", "table storage serves tableref, records or stream"))
	}

	var records []Record
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(locator))
		if bkt == nil {
			return errors.NotFound("table", locator)
		}
		return bkt.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, errors.StorageIO(string(KindTable), "read", err)
	}
	if format == FormatStream {
		return StreamFromRecords(records), nil
	}
	return records, nil
}

// Exists reports whether the table exists.
func (b *BoltTableEngine) Exists(_ context.Context, locator string) (bool, error) {
	return b.tableExists(locator)
}

func (b *BoltTableEngine) tableExists(table string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket([]byte(table)) != nil
		return nil
	})
	if err != nil {
		return false, errors.StorageIO(string(KindTable), "stat", err)
	}
	return found, nil
}
