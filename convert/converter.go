package convert

import (
	"context"

	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

// Conversion cost levels. Declared costs express relative expense:
// in-memory reshaping is cheap, disk round-trips an order of magnitude
// more, network transfers another order beyond that.
const (
	CostMemory  = 1
	CostDisk    = 10
	CostNetwork = 100
)

// Job carries one conversion hop's input to a converter function.
type Job struct {
	// Value is the hop input, read from the previous hop's replica.
	Value any
	// From and To are the hop's source and target coordinates.
	From storage.Pair
	To   storage.Pair
	// Schema is the realized (or nominal, if not yet realized) schema of
	// the block being converted. Converters use it for column ordering.
	Schema schema.Schema
	// Engines exposes storage backends to converters that must follow
	// opaque references (e.g. scanning a table behind a TableRef).
	Engines *storage.Engines
}

// Func converts a hop input into the value to be written at the target
// coordinate.
type Func func(ctx context.Context, job *Job) (any, error)

// Converter declares supported input and output coordinates, an integer
// cost, and the conversion function. One converter contributes an edge
// for every (input, output) combination.
type Converter struct {
	Name    string         `json:"name" validate:"required"`
	Inputs  []storage.Pair `json:"inputs" validate:"required,min=1"`
	Outputs []storage.Pair `json:"outputs" validate:"required,min=1"`
	Cost    int            `json:"cost" validate:"gt=0"`
	Fn      Func           `json:"-"`
}
