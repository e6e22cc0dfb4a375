// Package validation provides input validation for blockflow definitions.
//
// It supports struct tag validation (using the validator library) for pipe
// specs and converter registrations, and programmatic validation with error
// collection for cross-field rules tags cannot express.
//
// # Struct Tag Validation
//
//	type Spec struct {
//	    Name string `validate:"required"`
//	    Cost int    `validate:"gt=0"`
//	}
//	err := validation.Validate(spec)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(slot.SchemaKey == "" || slot.TypeVar == "", "slot", "schema key and type var are exclusive")
//	err := v.Error()
package validation
