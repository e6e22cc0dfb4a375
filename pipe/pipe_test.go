package pipe

import (
	"fmt"
	"testing"

	"github.com/blockflow/blockflow/errors"
)

func TestOutcome_Tags(t *testing.T) {
	p := Produced([]int{1, 2})
	if p.Kind() != OutcomeProduced || p.Value() == nil || p.Err() != nil {
		t.Fatalf("unexpected produced outcome: %+v", p)
	}

	e := Exhausted()
	if e.Kind() != OutcomeExhausted || e.Value() != nil || e.Err() != nil {
		t.Fatalf("unexpected exhausted outcome: %+v", e)
	}

	f := Fail(fmt.Errorf("boom"))
	if f.Kind() != OutcomeFailed || f.Err() == nil {
		t.Fatalf("unexpected failed outcome: %+v", f)
	}
}

func TestSpec_Validate(t *testing.T) {
	valid := Spec{
		Name: "clean",
		Inputs: []Slot{
			{Name: "in", Kind: SlotBlock, Required: true, SchemaKey: "core.Txn"},
			{Name: "previous", Kind: SlotSelf},
		},
		OutputSchemaKey: "core.Txn",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	cases := []struct {
		name string
		spec Spec
	}{
		{"missing name", Spec{Inputs: []Slot{{Name: "in", Kind: SlotBlock}}}},
		{"bad slot kind", Spec{Name: "p", Inputs: []Slot{{Name: "in", Kind: "table"}}}},
		{"schema key and type var", Spec{Name: "p", Inputs: []Slot{
			{Name: "in", Kind: SlotBlock, SchemaKey: "core.Txn", TypeVar: "T"},
		}}},
		{"required self slot", Spec{Name: "p", Inputs: []Slot{
			{Name: "previous", Kind: SlotSelf, Required: true},
		}}},
		{"duplicate slot", Spec{Name: "p", Inputs: []Slot{
			{Name: "in", Kind: SlotBlock},
			{Name: "in", Kind: SlotDataset},
		}}},
		{"output schema key and type var", Spec{Name: "p", OutputSchemaKey: "core.Txn", OutputTypeVar: "T"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.spec.Validate(); err == nil {
				t.Fatal("expected validation failure")
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	p := Pipe{
		Spec: Spec{Name: "extract"},
		Fn:   func(_ *Exec) Outcome { return Exhausted() },
	}
	if err := r.Register(p); err != nil {
		t.Fatal(err)
	}

	err := r.Register(p)
	if !errors.HasCode(err, errors.ErrCodeAlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}

	err = r.Register(Pipe{Spec: Spec{Name: "no-fn"}})
	if !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}

	got, err := r.Get("extract")
	if err != nil || got.Spec.Name != "extract" {
		t.Fatalf("lookup failed: %v", err)
	}
	if _, err := r.Get("nope"); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
