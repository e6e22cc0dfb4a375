package storage

import (
	"context"
	"sync"

	"github.com/blockflow/blockflow/errors"
)

// MemoryEngine is the in-process keyed object store. Streaming values
// are materialized on write and served as a fresh stream per read, so a
// committed stream replica can be read any number of times.
type MemoryEngine struct {
	mu   sync.RWMutex
	data map[string]memoryCell
}

type memoryCell struct {
	format Format
	value  any
}

// NewMemoryEngine creates an empty in-memory storage engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: make(map[string]memoryCell)}
}

// Kind returns KindMemory.
func (m *MemoryEngine) Kind() Kind { return KindMemory }

// Write stores the value under key. Replicas are immutable: writing an
// existing locator fails. A stream value is drained here; storing the
// live iterator would make the replica one-shot.
func (m *MemoryEngine) Write(ctx context.Context, key string, format Format, v any) (string, error) {
	if format.Streaming() {
		s, ok := v.(RecordStream)
		if !ok {
			return "", errors.StorageIO(string(KindMemory), "write",
				errors.InvalidInput("value", "expected RecordStream"))
		}
		rows, err := Drain(ctx, s)
		if err != nil {
			return "", errors.StorageIO(string(KindMemory), "write", err)
		}
		v = rows
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return "", errors.StorageIO(string(KindMemory), "write", errors.AlreadyExists("locator", key))
	}
	m.data[key] = memoryCell{format: format, value: v}
	return key, nil
}

// Read resolves a locator back to the stored value.
func (m *MemoryEngine) Read(_ context.Context, locator string, format Format) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cell, ok := m.data[locator]
	if !ok {
		return nil, errors.StorageIO(string(KindMemory), "read", errors.NotFound("locator", locator))
	}
	if cell.format != format {
		return nil, errors.StorageIO(string(KindMemory), "read",
			errors.InvalidInput("format", "stored as "+string(cell.format)+", requested "+string(format)))
	}
	if cell.format.Streaming() {
		return StreamFromRecords(cell.value.([]Record)), nil
	}
	return cell.value, nil
}

// Exists reports whether the locator resolves.
func (m *MemoryEngine) Exists(_ context.Context, locator string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[locator]
	return ok, nil
}
