package engine

import (
	"context"
	"path/filepath"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/block/boltmeta"
	"github.com/blockflow/blockflow/config"
	"github.com/blockflow/blockflow/convert"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/pipe"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

// Runtime bundles an engine with the registries and stores it was
// assembled from, so embedding applications can register schemas, pipes
// and converters against the same instances the engine executes with.
type Runtime struct {
	Engine     *Engine
	Graph      *Graph
	Meta       block.Store
	Engines    *storage.Engines
	Schemas    *schema.Registry
	Converters *convert.Registry
	Pipes      *pipe.Registry
	Log        *logger.Logger

	tables *storage.BoltTableEngine
}

// NewRuntime assembles a ready-to-use runtime from configuration:
// logger, schema registry, storage engines (memory always, file under
// DataDir, bolt-backed tables under DataDir), metadata store (bolt at
// MetaPath, or in-memory when unset), conversion registry with the
// built-in lattice, and an empty pipe registry bound to the graph.
func NewRuntime(ctx context.Context, cfg *config.Config, graph *Graph, opts ...Option) (*Runtime, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Validation(err.Error())
	}

	log := logger.New(&cfg.Logging, cfg.Name)
	schemas := schema.NewRegistry()

	engines := storage.NewEngines()
	if err := engines.Register(storage.NewMemoryEngine()); err != nil {
		return nil, err
	}
	fileEng, err := storage.NewFileEngine(filepath.Join(cfg.DataDir, "files"))
	if err != nil {
		return nil, err
	}
	if err := engines.Register(fileEng); err != nil {
		return nil, err
	}
	tables, err := storage.OpenBoltTableEngine(ctx, filepath.Join(cfg.DataDir, "tables.db"))
	if err != nil {
		return nil, err
	}
	if err := engines.Register(tables); err != nil {
		tables.Close()
		return nil, err
	}

	var meta block.Store
	if cfg.MetaPath != "" {
		meta, err = boltmeta.Open(cfg.MetaPath, schemas)
		if err != nil {
			tables.Close()
			return nil, err
		}
	} else {
		meta = block.NewMemStore(schemas)
	}

	converters := convert.NewRegistry(schemas, engines, convert.WithLogger(log))
	if err := convert.RegisterBuiltins(converters); err != nil {
		meta.Close()
		tables.Close()
		return nil, err
	}
	pipes := pipe.NewRegistry(pipe.WithLogger(log))

	defaultPair, err := defaultPairFor(cfg.DefaultStorage)
	if err != nil {
		meta.Close()
		tables.Close()
		return nil, err
	}
	opts = append([]Option{WithLogger(log), WithDefaultPair(defaultPair)}, opts...)

	rt := &Runtime{
		Graph:      graph,
		Meta:       meta,
		Engines:    engines,
		Schemas:    schemas,
		Converters: converters,
		Pipes:      pipes,
		Log:        log,
		tables:     tables,
	}
	rt.Engine = New(graph, meta, pipes, schemas, converters, engines, opts...)
	return rt, nil
}

// Close releases the metadata store and the table database.
func (r *Runtime) Close() error {
	metaErr := r.Meta.Close()
	tableErr := r.tables.Close()
	if metaErr != nil {
		return metaErr
	}
	return tableErr
}

func defaultPairFor(kind string) (storage.Pair, error) {
	switch storage.Kind(kind) {
	case storage.KindMemory:
		return storage.Pair{Kind: storage.KindMemory, Format: storage.FormatRecords}, nil
	case storage.KindFile:
		return storage.Pair{Kind: storage.KindFile, Format: storage.FormatRecords}, nil
	case storage.KindTable:
		return storage.Pair{Kind: storage.KindTable, Format: storage.FormatTableRef}, nil
	default:
		return storage.Pair{}, errors.InvalidInput("default_storage", "unknown storage kind "+kind)
	}
}
