package pipe

import (
	"sort"
	"sync"

	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
)

// Registry holds pipes by name. It is an explicit instance threaded
// through the engine; there is no process-wide default.
type Registry struct {
	mu    sync.RWMutex
	pipes map[string]*Pipe
	log   *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l.WithComponent("pipe") }
}

// NewRegistry creates an empty pipe registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pipes: make(map[string]*Pipe),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and adds a pipe.
func (r *Registry) Register(p Pipe) error {
	if err := p.Spec.Validate(); err != nil {
		return err
	}
	if p.Fn == nil {
		return errors.MissingField("fn")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pipes[p.Spec.Name]; ok {
		return errors.AlreadyExists("pipe", p.Spec.Name)
	}
	reg := p
	r.pipes[p.Spec.Name] = &reg

	r.log.Debug("pipe registered", logger.Fields(
		logger.FieldPipe, p.Spec.Name,
	))
	return nil
}

// Get retrieves a pipe by name.
func (r *Registry) Get(name string) (*Pipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipes[name]
	if !ok {
		return nil, errors.NotFound("pipe", name)
	}
	return p, nil
}

// Names returns the sorted names of all registered pipes.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pipes))
	for name := range r.pipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
