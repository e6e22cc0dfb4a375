package validation

import (
	"strings"

	"github.com/blockflow/blockflow/errors"
)

// Checker collects programmatic validation failures.
type Checker struct {
	fields []FieldError
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{}
}

// Check records a failure for field when ok is false.
func (c *Checker) Check(ok bool, field, message string) {
	if !ok {
		c.fields = append(c.fields, FieldError{Field: field, Message: message})
	}
}

// Valid reports whether no checks failed.
func (c *Checker) Valid() bool {
	return len(c.fields) == 0
}

// Error returns an aggregated validation error, or nil when all checks
// passed.
func (c *Checker) Error() error {
	if c.Valid() {
		return nil
	}
	messages := make([]string, 0, len(c.fields))
	for _, f := range c.fields {
		messages = append(messages, f.Field+": "+f.Message)
	}
	err := errors.Validation(strings.Join(messages, "; "))
	err.Details = map[string]any{"fields": c.fields}
	return err
}
