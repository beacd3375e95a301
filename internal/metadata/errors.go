package metadata

import (
	"fmt"
	"strings"
)

// SchemaViolationError indicates that an attribute key was set on a record
// whose schema does not declare it. For well-formed profile configurations
// this is a configuration or logic bug, not a user error.
type SchemaViolationError struct {
	Format string
	Key    string
}

// Error implements the error interface
func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("attribute %q is not declared in the schema of format %s", e.Key, e.Format)
}

// InvalidValueError indicates that an attribute value falls outside the
// enumerated range its schema allows.
type InvalidValueError struct {
	Format  string
	Key     string
	Value   string
	Allowed []string
}

// Error implements the error interface
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("value %q is not valid for attribute %q of format %s (allowed: %s)",
		e.Value, e.Key, e.Format, strings.Join(e.Allowed, ", "))
}

// IncompleteError indicates that a record was constructed without an
// attribute its schema marks as required.
type IncompleteError struct {
	Format string
	Key    string
}

// Error implements the error interface
func (e *IncompleteError) Error() string {
	return fmt.Sprintf("required attribute %q of format %s was not supplied", e.Key, e.Format)
}
