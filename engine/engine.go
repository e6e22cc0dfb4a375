package engine

import (
	"fmt"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/convert"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/observability"
	"github.com/blockflow/blockflow/pipe"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

// defaultSampleSize bounds how many records are read ahead from a
// produced stream for schema inference.
const defaultSampleSize = 100

// nodeState is the engine-held state of one node across runs: the
// mutable state map handed to the pipe, the block produced by the
// previous run (self-reference binding), and all block ids the node has
// ever produced (the dataset handle).
type nodeState struct {
	state  map[string]any
	last   *block.Block
	blocks []block.ID
}

// Engine drives pipe executions over a graph. All registries are
// explicit instances supplied at construction; the engine holds no
// global state.
type Engine struct {
	graph      *Graph
	meta       block.Store
	pipes      *pipe.Registry
	schemas    *schema.Registry
	converters *convert.Registry
	engines    *storage.Engines

	log         *logger.Logger
	metrics     *observability.Metrics
	defaultPair storage.Pair
	sampleSize  int

	states   map[NodeID]*nodeState
	inferSeq int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.log = l.WithComponent("engine") }
}

// WithMetrics sets the metric instruments. Nil is valid and records
// nothing.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithDefaultPair sets the (storage, format) coordinate produced data
// is written to when a slot does not request one.
func WithDefaultPair(p storage.Pair) Option {
	return func(e *Engine) { e.defaultPair = p }
}

// WithSampleSize bounds the read-ahead used to infer a schema from a
// produced stream.
func WithSampleSize(n int) Option {
	return func(e *Engine) { e.sampleSize = n }
}

// New creates an engine over the graph and the supplied registries.
func New(graph *Graph, meta block.Store, pipes *pipe.Registry, schemas *schema.Registry,
	converters *convert.Registry, engines *storage.Engines, opts ...Option) *Engine {
	e := &Engine{
		graph:       graph,
		meta:        meta,
		pipes:       pipes,
		schemas:     schemas,
		converters:  converters,
		engines:     engines,
		log:         logger.Nop(),
		defaultPair: storage.Pair{Kind: storage.KindMemory, Format: storage.FormatRecords},
		sampleSize:  defaultSampleSize,
		states:      make(map[NodeID]*nodeState),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) stateFor(id NodeID) *nodeState {
	st, ok := e.states[id]
	if !ok {
		st = &nodeState{state: make(map[string]any)}
		e.states[id] = st
	}
	return st
}

// LastBlock returns the block a node produced most recently, if any.
func (e *Engine) LastBlock(id NodeID) (block.Block, bool) {
	resolved, err := e.graph.resolveRef(id)
	if err != nil {
		return block.Block{}, false
	}
	st, ok := e.states[resolved]
	if !ok || st.last == nil {
		return block.Block{}, false
	}
	return *st.last, true
}

// ProducedBlocks returns the ids of every block a node has produced, in
// production order. This is the node's dataset handle.
func (e *Engine) ProducedBlocks(id NodeID) []block.ID {
	resolved, err := e.graph.resolveRef(id)
	if err != nil {
		return nil
	}
	st, ok := e.states[resolved]
	if !ok {
		return nil
	}
	return append([]block.ID(nil), st.blocks...)
}

// nextInferredKey names a freshly inferred schema. Keys are unique per
// engine so re-running a node never collides in the schema registry.
func (e *Engine) nextInferredKey(id NodeID) string {
	e.inferSeq++
	return fmt.Sprintf("inferred.%s.%d", id, e.inferSeq)
}
