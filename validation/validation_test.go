package validation

import (
	"testing"

	"github.com/blockflow/blockflow/errors"
)

type converterReg struct {
	Name string `validate:"required"`
	Cost int    `validate:"gt=0"`
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(converterReg{Name: "records-to-columnar", Cost: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	err := Validate(converterReg{Cost: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", errors.CodeOf(err))
	}
}

func TestChecker(t *testing.T) {
	c := New()
	c.Check(true, "name", "ignored")
	c.Check(false, "slot", "schema key and type var are exclusive")
	if c.Valid() {
		t.Fatal("expected invalid")
	}
	err := c.Error()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", errors.CodeOf(err))
	}
}

func TestChecker_Empty(t *testing.T) {
	if err := New().Error(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":       "name",
		"SchemaKey":  "schema_key",
		"TypeVar":    "type_var",
		"lowercased": "lowercased",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
