package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/blockflow/blockflow/errors"
)

// Engine is the backend contract every storage kind implements. Write
// materializes a value and returns a locator; Read resolves a locator
// back to a value; Exists checks whether a locator still resolves.
// Implementations surface failures as STORAGE_IO errors.
type Engine interface {
	Kind() Kind
	Write(ctx context.Context, key string, format Format, v any) (locator string, err error)
	Read(ctx context.Context, locator string, format Format) (any, error)
	Exists(ctx context.Context, locator string) (bool, error)
}

// Engines is an explicit registry of storage engines keyed by kind.
type Engines struct {
	mu      sync.RWMutex
	engines map[Kind]Engine
}

// NewEngines creates an empty engine registry.
func NewEngines() *Engines {
	return &Engines{engines: make(map[Kind]Engine)}
}

// Register adds an engine for its kind. A second engine for the same
// kind fails with ALREADY_EXISTS.
func (e *Engines) Register(eng Engine) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.engines[eng.Kind()]; ok {
		return errors.AlreadyExists("storage engine", string(eng.Kind()))
	}
	e.engines[eng.Kind()] = eng
	return nil
}

// Get retrieves the engine for a kind.
func (e *Engines) Get(kind Kind) (Engine, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	eng, ok := e.engines[kind]
	if !ok {
		return nil, errors.NotFound("storage engine", string(kind))
	}
	return eng, nil
}

// Kinds returns the sorted kinds with a registered engine.
func (e *Engines) Kinds() []Kind {
	e.mu.RLock()
	defer e.mu.RUnlock()
	kinds := make([]Kind, 0, len(e.engines))
	for k := range e.engines {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
