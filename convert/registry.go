package convert

import (
	"sort"
	"sync"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
	"github.com/blockflow/blockflow/validation"
)

// Hop is one directed conversion step in the converter graph.
type Hop struct {
	From, To  storage.Pair
	Cost      int
	Converter *Converter
}

// Registry holds registered converters as a directed graph whose nodes
// are (storage, format) pairs. It is an explicit instance; there is no
// process-wide default.
type Registry struct {
	mu      sync.RWMutex
	names   map[string]*Converter
	edges   map[storage.Pair][]Hop
	schemas *schema.Registry
	engines *storage.Engines
	log     *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l.WithComponent("convert") }
}

// NewRegistry creates an empty converter registry resolving schemas and
// storage engines through the given instances.
func NewRegistry(schemas *schema.Registry, engines *storage.Engines, opts ...Option) *Registry {
	r := &Registry{
		names:   make(map[string]*Converter),
		edges:   make(map[storage.Pair][]Hop),
		schemas: schemas,
		engines: engines,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and adds a converter, contributing one weighted
// edge per (input, output) combination.
func (r *Registry) Register(c Converter) error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Fn == nil {
		return errors.MissingField("fn")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[c.Name]; ok {
		return errors.AlreadyExists("converter", c.Name)
	}
	conv := c
	r.names[c.Name] = &conv
	for _, in := range c.Inputs {
		for _, out := range c.Outputs {
			if in == out {
				continue
			}
			r.edges[in] = append(r.edges[in], Hop{From: in, To: out, Cost: c.Cost, Converter: &conv})
		}
	}

	r.log.Debug("converter registered", logger.Fields(
		logger.FieldConverter, c.Name,
		logger.FieldCost, c.Cost,
	))
	return nil
}

// Names returns the sorted names of all registered converters.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// edgesFrom returns the outgoing edges of a pair, sorted by converter
// name for deterministic search results.
func (r *Registry) edgesFrom(p storage.Pair) []Hop {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]Hop(nil), r.edges[p]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Converter.Name != out[j].Converter.Name {
			return out[i].Converter.Name < out[j].Converter.Name
		}
		return out[i].To.String() < out[j].To.String()
	})
	return out
}
