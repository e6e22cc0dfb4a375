package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestError_String(t *testing.T) {
	err := SchemaMismatch("core.Txn", "inferred.Txn")
	want := `SCHEMA_MISMATCH: Realized schema "inferred.Txn" is not compatible with nominal schema "core.Txn".`
	if err.Error() != want {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := StorageIO("file", "write", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause to be unwrapped")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"coded", NoConversionPath("memory/records", "table/ref"), ErrCodeNoConversionPath},
		{"wrapped", fmt.Errorf("resolve: %w", InterfaceBinding("dedupe", "missing slot")), ErrCodeInterfaceBinding},
		{"plain", stderrors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("%s: CodeOf = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("node a: %w", SchemaMismatch("n", "r"))
	if !HasCode(err, ErrCodeSchemaMismatch) {
		t.Fatal("expected SCHEMA_MISMATCH through wrapping")
	}
	if HasCode(err, ErrCodeStorageIO) {
		t.Fatal("did not expect STORAGE_IO")
	}
}

func TestUnificationConflict_CarriesBothCodes(t *testing.T) {
	err := UnificationConflict("T", "left", "right")
	if !HasCode(err, ErrCodeInterfaceBinding) {
		t.Fatalf("expected INTERFACE_BINDING, got %v", err)
	}
	if !HasCode(err, ErrCodeSchemaMismatch) {
		t.Fatalf("expected SCHEMA_MISMATCH in the cause chain, got %v", err)
	}
	if CodeOf(err) != ErrCodeInterfaceBinding {
		t.Fatalf("surface code must be the binding failure, got %s", CodeOf(err))
	}
}

func TestWithDetail(t *testing.T) {
	err := Validation("bad spec").WithDetail("slot", "input")
	if err.Details["slot"] != "input" {
		t.Fatalf("detail not set: %v", err.Details)
	}
}
