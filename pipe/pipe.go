package pipe

import (
	"context"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/storage"
	"github.com/blockflow/blockflow/validation"
)

// SlotKind classifies what an input slot binds to.
type SlotKind string

const (
	// SlotBlock binds a single upstream block.
	SlotBlock SlotKind = "block"
	// SlotDataset binds the dataset handle of an upstream node: its
	// latest materialized snapshot rather than one point-in-time block.
	SlotDataset SlotKind = "dataset"
	// SlotSelf binds the block this same node produced on its previous
	// run. Absent on the first run; pipes must treat it as optional.
	SlotSelf SlotKind = "self"
)

// Slot declares one named input of a pipe. The schema binding is either
// a concrete schema key or a type variable shared across slots, never
// both.
type Slot struct {
	Name     string   `json:"name" validate:"required"`
	Kind     SlotKind `json:"kind" validate:"required,oneof=block dataset self"`
	Required bool     `json:"required"`
	// SchemaKey pins the slot to a concrete schema.
	SchemaKey string `json:"schema_key,omitempty"`
	// TypeVar names a type variable; slots sharing one must bind
	// structurally equal schemas.
	TypeVar string `json:"type_var,omitempty"`
	// Pair is the (storage, format) coordinate the pipe wants the bound
	// value materialized in. Zero value means the engine default.
	Pair storage.Pair `json:"pair,omitempty"`
}

// Spec is a pipe's statically declared interface descriptor.
type Spec struct {
	Name   string `json:"name" validate:"required"`
	Inputs []Slot `json:"inputs" validate:"dive"`
	// Output declares the produced block's nominal schema: a concrete
	// key, or a type variable resolved from the inputs.
	OutputSchemaKey string `json:"output_schema_key,omitempty"`
	OutputTypeVar   string `json:"output_type_var,omitempty"`
	// Repeatable marks a streaming/incremental producer: the scheduler
	// keeps invoking it until Exhausted. Single-shot pipes run once.
	Repeatable bool `json:"repeatable"`
	// NeedsContext flags that the pipe reads execution state or config.
	// It is scheduler plumbing, never a data slot.
	NeedsContext bool `json:"needs_context"`
}

// Validate checks the struct tags plus the cross-field rules the tags
// cannot express.
func (s Spec) Validate() error {
	if err := validation.Validate(s); err != nil {
		return err
	}
	c := validation.New()
	seen := make(map[string]bool, len(s.Inputs))
	for _, slot := range s.Inputs {
		c.Check(!seen[slot.Name], "inputs", "duplicate slot name "+slot.Name)
		seen[slot.Name] = true
		c.Check(slot.SchemaKey == "" || slot.TypeVar == "",
			"inputs."+slot.Name, "schema key and type variable are mutually exclusive")
		c.Check(slot.Kind != SlotSelf || !slot.Required,
			"inputs."+slot.Name, "a self-reference slot is absent on the first run and cannot be required")
	}
	c.Check(s.OutputSchemaKey == "" || s.OutputTypeVar == "",
		"output", "schema key and type variable are mutually exclusive")
	return c.Error()
}

// Input is one bound, materialized input handed to a pipe invocation.
type Input struct {
	Slot  Slot
	Block block.Block
	// Value is the bound data in the slot's requested (storage, format)
	// coordinate.
	Value any
}

// Records returns the input value as a row sequence.
func (in Input) Records() ([]storage.Record, error) {
	rows, ok := in.Value.([]storage.Record)
	if !ok {
		return nil, errors.InvalidInput(in.Slot.Name, "input is not a row sequence")
	}
	return rows, nil
}

// Stream returns the input value as a lazy record stream.
func (in Input) Stream() (storage.RecordStream, error) {
	s, ok := in.Value.(storage.RecordStream)
	if !ok {
		return nil, errors.InvalidInput(in.Slot.Name, "input is not a record stream")
	}
	return s, nil
}

// Exec is the execution context of one pipe invocation: bound inputs,
// node configuration, mutable per-node state, and a logger. It is
// supplied by the scheduler and never declared as a data slot.
type Exec struct {
	Context context.Context
	Inputs  map[string]Input
	Config  map[string]any
	State   map[string]any
	Log     *logger.Logger
}

// Input returns the binding for a slot name, reporting whether the slot
// was bound at all (optional and self-reference slots may be absent).
func (e *Exec) Input(name string) (Input, bool) {
	in, ok := e.Inputs[name]
	return in, ok
}

// Records is shorthand for fetching a slot's value as rows.
func (e *Exec) Records(name string) ([]storage.Record, error) {
	in, ok := e.Inputs[name]
	if !ok {
		return nil, errors.NotFound("input", name)
	}
	return in.Records()
}

// Func is the pipe body. It pulls bound inputs from the execution
// context and reports one tagged outcome per invocation.
type Func func(e *Exec) Outcome

// Pipe pairs a declared interface with its implementation.
type Pipe struct {
	Spec Spec
	Fn   Func
}
