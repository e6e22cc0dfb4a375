package schema

import (
	"sort"
	"sync"

	"github.com/blockflow/blockflow/errors"
)

// Registry provides key-based schema lookup. It is an explicit instance;
// there is no process-wide default.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds a schema under its key. Registering an existing key fails
// with ALREADY_EXISTS; descriptors are immutable once published.
func (r *Registry) Register(s Schema) error {
	if s.Key == "" {
		return errors.MissingField("key")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.Key]; ok {
		return errors.AlreadyExists("schema", s.Key)
	}
	r.schemas[s.Key] = s
	return nil
}

// Get retrieves a schema by key.
func (r *Registry) Get(key string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[key]
	if !ok {
		return Schema{}, errors.NotFound("schema", key)
	}
	return s, nil
}

// List returns sorted keys of all registered schemas.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for key := range r.schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CompatibleKeys reports whether the schemas under the two keys are
// compatible. Unknown keys fail with NOT_FOUND.
func (r *Registry) CompatibleKeys(realizedKey, nominalKey string) (bool, error) {
	realized, err := r.Get(realizedKey)
	if err != nil {
		return false, err
	}
	nominal, err := r.Get(nominalKey)
	if err != nil {
		return false, err
	}
	return Compatible(realized, nominal), nil
}
