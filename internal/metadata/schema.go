// Package metadata provides attribute-validated metadata records for the
// files a wrapped service consumes and produces. Every record is governed by
// the attribute schema of its format: the schema declares which attribute
// keys exist, which are required, which are restricted to an enumerated
// range, and which are fixed to a single value.
package metadata

import (
	"fmt"
	"sort"
)

// ConstraintKind classifies how a schema constrains a single attribute.
type ConstraintKind int

const (
	// Required attributes accept any scalar value but must be present.
	Required ConstraintKind = iota

	// Optional attributes accept any scalar value and may be absent.
	Optional

	// Enumerated attributes must hold one of a fixed set of values.
	// Presence is required unless the constraint allows absence.
	Enumerated

	// Fixed attributes are forced to a single value regardless of what the
	// caller supplies. They are not user-settable.
	Fixed
)

// String returns the string representation of the constraint kind
func (k ConstraintKind) String() string {
	switch k {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Enumerated:
		return "enumerated"
	case Fixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Constraint describes the rule a schema applies to one attribute key.
type Constraint struct {
	Kind        ConstraintKind
	Values      []string // allowed values, Enumerated only
	Value       string   // forced value, Fixed only
	AllowAbsent bool     // Enumerated only: absence is a valid setting
}

// RequiredAttr returns a constraint for an attribute that must be present.
func RequiredAttr() Constraint {
	return Constraint{Kind: Required}
}

// OptionalAttr returns a constraint for an attribute that may be absent.
func OptionalAttr() Constraint {
	return Constraint{Kind: Optional}
}

// EnumeratedAttr returns a constraint restricting an attribute to the given
// values. If allowAbsent is true, leaving the attribute unset is also valid.
func EnumeratedAttr(allowAbsent bool, values ...string) Constraint {
	return Constraint{Kind: Enumerated, Values: values, AllowAbsent: allowAbsent}
}

// FixedAttr returns a constraint forcing an attribute to a single value.
func FixedAttr(value string) Constraint {
	return Constraint{Kind: Fixed, Value: value}
}

// mandatory reports whether the constraint requires the attribute to be set.
func (c Constraint) mandatory() bool {
	switch c.Kind {
	case Required, Fixed:
		return true
	case Enumerated:
		return !c.AllowAbsent
	default:
		return false
	}
}

// Schema maps attribute names to their constraints. A nil *Schema means the
// format is free-form: any attribute, any scalar value.
type Schema struct {
	Attributes map[string]Constraint

	// AllowCustom permits attribute keys beyond the declared ones.
	// Declared keys keep their constraints either way.
	AllowCustom bool
}

// NewSchema builds a schema from the given attribute constraints.
func NewSchema(attributes map[string]Constraint) *Schema {
	return &Schema{Attributes: attributes}
}

// Validate checks a single key/value pair against the schema. A nil schema
// accepts everything.
func (s *Schema) Validate(format, key, value string) error {
	if s == nil {
		return nil
	}

	constraint, declared := s.Attributes[key]
	if !declared {
		if s.AllowCustom {
			return nil
		}
		return &SchemaViolationError{Format: format, Key: key}
	}

	if constraint.Kind == Enumerated {
		for _, allowed := range constraint.Values {
			if value == allowed {
				return nil
			}
		}
		return &InvalidValueError{Format: format, Key: key, Value: value, Allowed: constraint.Values}
	}

	return nil
}

// CheckComplete verifies that every mandatory attribute is present in attrs.
// Fixed attributes are exempt: construction forces them unconditionally.
func (s *Schema) CheckComplete(format string, attrs *Attributes) error {
	if s == nil {
		return nil
	}

	for _, key := range s.sortedKeys() {
		constraint := s.Attributes[key]
		if constraint.Kind == Fixed {
			continue
		}
		if !constraint.mandatory() {
			continue
		}
		if _, ok := attrs.Get(key); !ok {
			return &IncompleteError{Format: format, Key: key}
		}
	}
	return nil
}

// applyFixed forces every Fixed attribute onto attrs, overwriting whatever
// the caller supplied. Keys are applied in sorted order so the resulting
// attribute sequence is identical across constructions.
func (s *Schema) applyFixed(attrs *Attributes) {
	if s == nil {
		return
	}
	for _, key := range s.sortedKeys() {
		if constraint := s.Attributes[key]; constraint.Kind == Fixed {
			attrs.Set(key, constraint.Value)
		}
	}
}

// sortedKeys returns the declared attribute names in sorted order. Schema
// iteration must never depend on map order: record attribute sequences and
// error selection have to be stable across runs.
func (s *Schema) sortedKeys() []string {
	keys := make([]string, 0, len(s.Attributes))
	for key := range s.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Describe returns a serializable description of the schema's constraints,
// keyed by attribute name.
func (s *Schema) Describe() map[string]ConstraintDescription {
	if s == nil {
		return nil
	}
	result := make(map[string]ConstraintDescription, len(s.Attributes))
	for key, constraint := range s.Attributes {
		result[key] = ConstraintDescription{
			Kind:        constraint.Kind.String(),
			Values:      constraint.Values,
			Value:       constraint.Value,
			AllowAbsent: constraint.AllowAbsent,
		}
	}
	return result
}

// ConstraintDescription is the presentation-layer shape of one constraint.
type ConstraintDescription struct {
	Kind        string   `json:"kind"`
	Values      []string `json:"values,omitempty"`
	Value       string   `json:"value,omitempty"`
	AllowAbsent bool     `json:"allow_absent,omitempty"`
}

// ParseConstraintKind converts a string to a ConstraintKind
func ParseConstraintKind(s string) (ConstraintKind, error) {
	switch s {
	case "required":
		return Required, nil
	case "optional":
		return Optional, nil
	case "enumerated":
		return Enumerated, nil
	case "fixed":
		return Fixed, nil
	default:
		return 0, fmt.Errorf("unknown attribute constraint kind: %s", s)
	}
}
