package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is the unified runtime error type.
type Error struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the error code from err, or ErrCodeInternal for
// unclassified errors. Returns "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any error in err's chain carries the given
// code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Unwrap()
	}
	return false
}

// --- Common Error Constructors ---

// SchemaMismatch creates a new Error for a realized schema that is
// incompatible with its nominal schema.
func SchemaMismatch(nominal, realized string) *Error {
	return &Error{
		Code: ErrCodeSchemaMismatch, Message: fmt.Sprintf("Realized schema %q is not compatible with nominal schema %q.", realized, nominal),
		Details: map[string]any{"nominal": nominal, "realized": realized},
	}
}

// UnificationConflict creates a new Error for a type-variable conflict
// across pipe input slots. The binding failure is the surface error;
// the underlying schema mismatch travels as its cause.
func UnificationConflict(typeVar, slotA, slotB string) *Error {
	return &Error{
		Code: ErrCodeInterfaceBinding, Message: fmt.Sprintf("Type variable %q binds structurally different schemas across slots %q and %q.", typeVar, slotA, slotB),
		Details: map[string]any{"type_var": typeVar, "slots": []string{slotA, slotB}},
		Cause:   New(ErrCodeSchemaMismatch, "structural unification conflict"),
	}
}

// NoConversionPath creates a new Error for a missing converter path.
func NoConversionPath(source, target string) *Error {
	return &Error{
		Code: ErrCodeNoConversionPath, Message: fmt.Sprintf("No conversion path from %s to %s.", source, target),
		Details: map[string]any{"source": source, "target": target},
	}
}

// InterfaceBinding creates a new Error for a pipe interface that could not
// be bound.
func InterfaceBinding(pipe, reason string) *Error {
	return &Error{
		Code: ErrCodeInterfaceBinding, Message: fmt.Sprintf("Cannot bind interface of pipe %q: %s", pipe, reason),
		Details: map[string]any{"pipe": pipe},
	}
}

// StorageIO creates a new Error for a failed storage backend operation.
func StorageIO(storage, operation string, cause error) *Error {
	return &Error{
		Code: ErrCodeStorageIO, Message: fmt.Sprintf("Storage %s failed during %s.", storage, operation),
		Details: map[string]any{"storage": storage, "operation": operation},
		Cause:   cause,
	}
}

// NotFound creates a new Error for a resource that was not found.
func NotFound(resource, id string) *Error {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &Error{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// AlreadyExists creates a new Error for a resource that already exists.
func AlreadyExists(resource, id string) *Error {
	return &Error{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s with id %q already exists.", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

// InvalidInput creates a new Error for invalid input.
func InvalidInput(field, reason string) *Error {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &Error{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new Error for validation errors.
func Validation(message string) *Error {
	return &Error{Code: ErrCodeInvalidInput, Message: message}
}

// MissingField creates a new Error for a missing required field.
func MissingField(field string) *Error {
	return &Error{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new Error for an unexpected internal error.
func Internal(cause error) *Error {
	return &Error{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}
