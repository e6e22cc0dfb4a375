package engine

import (
	"reflect"
	"testing"

	"github.com/blockflow/blockflow/errors"
)

func TestGraph_AddNodeValidation(t *testing.T) {
	g := NewGraph()

	if err := g.AddNode(Node{Pipe: "p"}); err == nil {
		t.Fatal("expected failure for missing id")
	}
	if err := g.AddNode(Node{ID: "a"}); err == nil {
		t.Fatal("expected failure for missing pipe")
	}

	if err := g.AddNode(Node{ID: "a", Pipe: "p"}); err != nil {
		t.Fatal(err)
	}
	err := g.AddNode(Node{ID: "a", Pipe: "q"})
	if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestGraph_UpstreamClosureOrder(t *testing.T) {
	g := NewGraph()
	for _, n := range []Node{
		{ID: "source", Pipe: "p"},
		{ID: "mid", Pipe: "p", Inputs: map[string]NodeID{"in": "source"}},
		{ID: "sink", Pipe: "p", Inputs: map[string]NodeID{"in": "mid"}},
		{ID: "unrelated", Pipe: "p"},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}

	closure, err := g.upstreamClosure("sink")
	if err != nil {
		t.Fatal(err)
	}
	want := []NodeID{"source", "mid", "sink"}
	if !reflect.DeepEqual(closure, want) {
		t.Fatalf("expected closure %v, got %v", want, closure)
	}
}

func TestGraph_CycleRejected(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(Node{ID: "a", Pipe: "p", Inputs: map[string]NodeID{"in": "b"}}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(Node{ID: "b", Pipe: "p", Inputs: map[string]NodeID{"in": "a"}}); err != nil {
		t.Fatal(err)
	}

	_, err := g.upstreamClosure("a")
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected cycle rejection, got %v", err)
	}
}

func TestGraph_SelfReferenceIsNotACycle(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(Node{ID: "acc", Pipe: "p", Inputs: map[string]NodeID{"previous": "acc"}}); err != nil {
		t.Fatal(err)
	}

	closure, err := g.upstreamClosure("acc")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(closure, []NodeID{"acc"}) {
		t.Fatalf("unexpected closure: %v", closure)
	}
}

func TestGraph_ChainExpansionCached(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(Node{ID: "raw", Pipe: "p"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddChain("etl", map[string]NodeID{"in": "raw"}, "extract", "transform"); err != nil {
		t.Fatal(err)
	}

	entry, exit, internal, ok := g.Expansion("etl")
	if !ok {
		t.Fatal("expected a cached expansion")
	}
	if entry != "etl.0" || exit != "etl.1" {
		t.Fatalf("unexpected entry/exit: %s/%s", entry, exit)
	}
	if len(internal) != 2 {
		t.Fatalf("expected 2 internal nodes, got %d", len(internal))
	}

	// External references to the chain id resolve to its exit node.
	if err := g.AddNode(Node{ID: "report", Pipe: "p", Inputs: map[string]NodeID{"in": "etl"}}); err != nil {
		t.Fatal(err)
	}
	closure, err := g.upstreamClosure("report")
	if err != nil {
		t.Fatal(err)
	}
	want := []NodeID{"raw", "etl.0", "etl.1", "report"}
	if !reflect.DeepEqual(closure, want) {
		t.Fatalf("expected closure %v, got %v", want, closure)
	}
}

func TestGraph_ChainIdCollides(t *testing.T) {
	g := NewGraph()
	if err := g.AddChain("etl", nil, "extract"); err != nil {
		t.Fatal(err)
	}
	err := g.AddNode(Node{ID: "etl", Pipe: "p"})
	if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestGraph_UnknownReference(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(Node{ID: "a", Pipe: "p", Inputs: map[string]NodeID{"in": "ghost"}}); err != nil {
		t.Fatal(err)
	}
	_, err := g.upstreamClosure("a")
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
