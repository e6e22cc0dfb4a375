package schema

// FieldType classifies a schema field's value type.
type FieldType string

const (
	Text     FieldType = "text"
	Integer  FieldType = "integer"
	Decimal  FieldType = "decimal"
	Bool     FieldType = "bool"
	Datetime FieldType = "datetime"
	JSON     FieldType = "json"
	// Any matches every field type during compatibility checks.
	Any FieldType = "any"
)

// Field is one named, typed column of a record type.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema is a structural record-type descriptor: an ordered field list,
// optional uniqueness key sets, and the set of field names that must be
// present for a record to satisfy the type.
type Schema struct {
	// Key identifies the schema in a Registry.
	Key string `json:"key"`
	// Fields is the ordered field list.
	Fields []Field `json:"fields"`
	// Required names the fields that must be present. Fields not listed
	// are optional.
	Required []string `json:"required,omitempty"`
	// Unique lists field-name sets that uniquely identify a record.
	Unique [][]string `json:"unique,omitempty"`
}

// FieldType returns the declared type of the named field, or ("", false).
func (s Schema) FieldType(name string) (FieldType, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return "", false
}

// requiredSet returns the required field names; a schema with no explicit
// Required list requires all of its fields.
func (s Schema) requiredSet() map[string]struct{} {
	set := make(map[string]struct{})
	if len(s.Required) > 0 {
		for _, name := range s.Required {
			set[name] = struct{}{}
		}
		return set
	}
	for _, f := range s.Fields {
		set[f.Name] = struct{}{}
	}
	return set
}

// Compatible reports whether the realized schema satisfies the nominal
// one. Two schemas are compatible when one's required fields are a subset
// of the other's fields, with agreeing field types (Any agrees with all).
func Compatible(realized, nominal Schema) bool {
	return covers(realized, nominal) || covers(nominal, realized)
}

// covers reports whether sub's fields include every required field of
// super with an agreeing type.
func covers(sub, super Schema) bool {
	for name := range super.requiredSet() {
		subType, ok := sub.FieldType(name)
		if !ok {
			return false
		}
		superType, _ := super.FieldType(name)
		if !typesAgree(subType, superType) {
			return false
		}
	}
	return true
}

func typesAgree(a, b FieldType) bool {
	return a == b || a == Any || b == Any
}

// EqualStructure reports whether two schemas declare the same fields with
// the same types in the same order. Used by type-variable unification,
// which requires structural equality rather than compatibility.
func EqualStructure(a, b Schema) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}
	return true
}
