package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/resilience"
	"github.com/blockflow/blockflow/util"
)

// FileEngine stores each replica as one JSON file under a root
// directory. Streaming formats cannot be written directly; the
// conversion engine materializes them first.
type FileEngine struct {
	root string
}

// NewFileEngine creates a file storage engine rooted at dir, creating
// the directory if needed.
func NewFileEngine(dir string) (*FileEngine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.StorageIO(string(KindFile), "init", err)
	}
	return &FileEngine{root: dir}, nil
}

// Kind returns KindFile.
func (f *FileEngine) Kind() Kind { return KindFile }

// Write encodes the value as JSON into a new file named after the
// sanitized key. The write itself is retried on transient failures.
func (f *FileEngine) Write(ctx context.Context, key string, format Format, v any) (string, error) {
	if format.Streaming() {
		return "", errors.StorageIO(string(KindFile), "write",
			errors.InvalidInput("format", "file storage cannot hold a lazy stream"))
	}
	path := filepath.Join(f.root, util.SafeName(key)+".json")
	if _, err := os.Stat(path); err == nil {
		return "", errors.StorageIO(string(KindFile), "write", errors.AlreadyExists("locator", path))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.StorageIO(string(KindFile), "write", err)
	}
	err = resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
		return os.WriteFile(path, data, 0o644)
	})
	if err != nil {
		return "", errors.StorageIO(string(KindFile), "write", err)
	}
	return path, nil
}

// Read decodes the file at locator into the requested format's value
// type.
func (f *FileEngine) Read(_ context.Context, locator string, format Format) (any, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		return nil, errors.StorageIO(string(KindFile), "read", err)
	}
	switch format {
	case FormatRecords:
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, errors.StorageIO(string(KindFile), "read", err)
		}
		return records, nil
	case FormatColumnar:
		var c Columnar
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.StorageIO(string(KindFile), "read", err)
		}
		return c, nil
	default:
		return nil, errors.StorageIO(string(KindFile), "read",
			errors.InvalidInput("format", "file storage holds records or columnar data"))
	}
}

// Exists reports whether the file at locator exists.
func (f *FileEngine) Exists(_ context.Context, locator string) (bool, error) {
	_, err := os.Stat(locator)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.StorageIO(string(KindFile), "stat", err)
}
