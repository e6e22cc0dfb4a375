package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Schema and typing errors
const (
	// ErrCodeSchemaMismatch indicates a realized schema is incompatible with
	// the nominal one, or that type-variable unification found a conflict.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	// ErrCodeInterfaceBinding indicates a pipe interface could not be bound
	// before invocation (missing required slot, unification failure).
	ErrCodeInterfaceBinding ErrorCode = "INTERFACE_BINDING"
)

// Conversion and storage errors
const (
	// ErrCodeNoConversionPath indicates no converter path exists between the
	// source and target (storage, format) pairs.
	ErrCodeNoConversionPath ErrorCode = "NO_CONVERSION_PATH"
	// ErrCodeStorageIO indicates a storage backend read or write failed.
	ErrCodeStorageIO ErrorCode = "STORAGE_IO"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
