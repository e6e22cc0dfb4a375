package engine

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/blockflow/blockflow/config"
	"github.com/blockflow/blockflow/pipe"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:  dir,
		MetaPath: filepath.Join(dir, "meta.db"),
	}
}

func TestNewRuntime_AssemblesEngines(t *testing.T) {
	ctx := context.Background()
	rt, err := NewRuntime(ctx, testConfig(t), NewGraph())
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	for _, kind := range []storage.Kind{storage.KindMemory, storage.KindFile, storage.KindTable} {
		if _, err := rt.Engines.Get(kind); err != nil {
			t.Fatalf("expected %s engine to be registered: %v", kind, err)
		}
	}
	if rt.Engine == nil || rt.Pipes == nil || rt.Converters == nil {
		t.Fatal("runtime must expose the assembled registries")
	}
}

func TestNewRuntime_RejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DefaultStorage = "tape"
	if _, err := NewRuntime(context.Background(), cfg, NewGraph()); err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestRuntime_ProduceEndToEnd(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()
	rt, err := NewRuntime(ctx, testConfig(t), g)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close()

	if err := rt.Schemas.Register(schema.Schema{
		Key: "core.Event",
		Fields: []schema.Field{
			{Name: "id", Type: schema.Integer},
		},
	}); err != nil {
		t.Fatal(err)
	}

	if err := rt.Pipes.Register(pipe.Pipe{
		Spec: pipe.Spec{Name: "emit", OutputSchemaKey: "core.Event"},
		Fn: func(e *pipe.Exec) pipe.Outcome {
			return pipe.Produced([]storage.Record{{"id": int64(7)}})
		},
	}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "emit", Pipe: "emit"}); err != nil {
		t.Fatal(err)
	}

	blk, err := rt.Engine.Produce(ctx, "emit")
	if err != nil {
		t.Fatal(err)
	}

	tx, err := rt.Meta.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	rep, ok, err := tx.FindReplica(blk.ID, storage.KindMemory, storage.FormatRecords)
	if err != nil || !ok {
		t.Fatalf("expected memory replica: %v", err)
	}
	eng, err := rt.Engines.Get(storage.KindMemory)
	if err != nil {
		t.Fatal(err)
	}
	v, err := eng.Read(ctx, rep.Locator, storage.FormatRecords)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v, []storage.Record{{"id": int64(7)}}) {
		t.Fatalf("unexpected materialized rows: %v", v)
	}
}
