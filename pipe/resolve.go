package pipe

import (
	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/schema"
)

// Resolved is a pipe interface bound to concrete upstream blocks, with
// every type variable unified to one schema key.
type Resolved struct {
	Pipe *Pipe
	// Bound holds the slots that received a binding. Optional and
	// self-reference slots without one are simply absent.
	Bound map[string]block.Block
	// TypeVars maps each type variable to the schema key it unified to.
	TypeVars map[string]string
}

// OutputSchemaKey resolves the declared output schema: a concrete key,
// or the schema a type variable unified to from the inputs.
func (r *Resolved) OutputSchemaKey() (string, bool) {
	if r.Pipe.Spec.OutputSchemaKey != "" {
		return r.Pipe.Spec.OutputSchemaKey, true
	}
	if r.Pipe.Spec.OutputTypeVar != "" {
		key, ok := r.TypeVars[r.Pipe.Spec.OutputTypeVar]
		return key, ok
	}
	return "", false
}

// Resolve binds upstream blocks to the pipe's declared slots, before
// the pipe is invoked. A required slot with no binding fails with
// INTERFACE_BINDING. Slots sharing a type variable must bind
// structurally equal realized schemas; a conflict fails with
// SCHEMA_MISMATCH. A self-reference slot without a binding is omitted:
// the node has not produced anything yet.
func Resolve(p *Pipe, bound map[string]block.Block, schemas *schema.Registry) (*Resolved, error) {
	res := &Resolved{
		Pipe:     p,
		Bound:    make(map[string]block.Block, len(bound)),
		TypeVars: make(map[string]string),
	}
	varSlot := make(map[string]string)

	for _, slot := range p.Spec.Inputs {
		b, ok := bound[slot.Name]
		if !ok {
			if slot.Kind == SlotSelf {
				continue
			}
			if slot.Required {
				return nil, errors.InterfaceBinding(p.Spec.Name, "required slot "+slot.Name+" has no bound upstream")
			}
			continue
		}

		key := boundSchemaKey(b)
		sch, err := schemas.Get(key)
		if err != nil {
			return nil, err
		}

		if slot.SchemaKey != "" {
			ok, err := schemas.CompatibleKeys(key, slot.SchemaKey)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errors.InterfaceBinding(p.Spec.Name,
					"slot "+slot.Name+" requires schema "+slot.SchemaKey+", bound block realizes "+key)
			}
		}

		if slot.TypeVar != "" {
			if prevKey, ok := res.TypeVars[slot.TypeVar]; ok {
				prev, err := schemas.Get(prevKey)
				if err != nil {
					return nil, err
				}
				if !schema.EqualStructure(prev, sch) {
					return nil, errors.UnificationConflict(slot.TypeVar, varSlot[slot.TypeVar], slot.Name)
				}
			} else {
				res.TypeVars[slot.TypeVar] = key
				varSlot[slot.TypeVar] = slot.Name
			}
		}

		res.Bound[slot.Name] = b
	}
	return res, nil
}

// boundSchemaKey prefers the realized schema of a materialized block
// and falls back to its nominal declaration.
func boundSchemaKey(b block.Block) string {
	if b.Realized() {
		return b.RealizedSchema
	}
	return b.NominalSchema
}
