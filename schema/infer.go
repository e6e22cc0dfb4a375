package schema

import (
	"encoding/json"
	"time"

	"github.com/blockflow/blockflow/errors"
)

// Infer derives a realized schema from sample records. Field order follows
// first appearance; a field observed with conflicting types widens to Any;
// fields absent from some records are marked optional by omission from
// Required.
func Infer(key string, records []map[string]any) (Schema, error) {
	if len(records) == 0 {
		return Schema{}, errors.InvalidInput("records", "cannot infer a schema from empty input")
	}

	types := make(map[string]FieldType)
	counts := make(map[string]int)

	for _, rec := range records {
		for name, value := range rec {
			t := typeOf(value)
			prev, seen := types[name]
			if !seen {
				types[name] = t
			} else if prev != t && prev != Any {
				types[name] = Any
			}
			counts[name]++
		}
	}

	order := stableOrder(records, counts)

	s := Schema{Key: key}
	for _, name := range order {
		s.Fields = append(s.Fields, Field{Name: name, Type: types[name]})
		if counts[name] == len(records) {
			s.Required = append(s.Required, name)
		}
	}
	return s, nil
}

// stableOrder walks records in order and returns field names by first
// appearance. Within one record, names are sorted for determinism since
// Go map iteration is randomized.
func stableOrder(records []map[string]any, counts map[string]int) []string {
	seen := make(map[string]struct{}, len(counts))
	var order []string
	for _, rec := range records {
		names := make([]string, 0, len(rec))
		for name := range rec {
			names = append(names, name)
		}
		sortStrings(names)
		for _, name := range names {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				order = append(order, name)
			}
		}
	}
	return order
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func typeOf(v any) FieldType {
	switch v.(type) {
	case nil:
		return Any
	case string:
		return Text
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Integer
	case float32, float64:
		return Decimal
	case bool:
		return Bool
	case time.Time:
		return Datetime
	case json.Number:
		return Decimal
	case map[string]any, []any:
		return JSON
	default:
		return Any
	}
}
