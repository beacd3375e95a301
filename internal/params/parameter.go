// Package params defines the parameter objects a service profile exposes to
// its users: typed value holders with coercion, per-parameter error state,
// mutual-exclusion and mutual-requirement constraints, and user-based
// access checks. Parameter specifications attached to templates are shared
// configuration; validation always operates on copies.
package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Parameter is one user-settable value in a template's parameter set.
type Parameter interface {
	// ID returns the parameter identifier used in submissions.
	ID() string

	// Label returns the human-readable name.
	Label() string

	// Value returns the resolved value as a string, empty if unset.
	Value() string

	// HasValue reports whether a value has been set (explicitly or by default).
	HasValue() bool

	// SetValue coerces and stores a submitted raw value.
	SetValue(raw string) error

	// Error returns the validation error message attached to this
	// parameter, empty if none.
	Error() string

	// SetError attaches a validation error message.
	SetError(msg string)

	// Required reports whether a value must be submitted.
	Required() bool

	// Forbid lists parameter IDs that may not be set together with this one.
	Forbid() []string

	// Require lists parameter IDs that must be set together with this one.
	Require() []string

	// AccessibleBy reports whether the given user may set this parameter.
	// The empty user is the anonymous user.
	AccessibleBy(user string) bool

	// Copy returns an independent copy of the parameter.
	Copy() Parameter
}

// Spec carries the fields shared by all parameter kinds. Concrete kinds
// embed it and add coercion.
type Spec struct {
	Ident       string   // parameter id
	Name        string   // human-readable label
	Description string   // help text, may be empty
	Mandatory   bool     // a value must be submitted
	ForbidIDs   []string // mutually exclusive parameter ids
	RequireIDs  []string // mutually required parameter ids
	AllowUsers  []string // if non-empty, only these users may set the parameter
	DenyUsers   []string // these users may never set the parameter

	value    string
	hasValue bool
	errMsg   string
}

// ID returns the parameter identifier.
func (s *Spec) ID() string { return s.Ident }

// Label returns the human-readable name.
func (s *Spec) Label() string { return s.Name }

// Value returns the resolved value.
func (s *Spec) Value() string { return s.value }

// HasValue reports whether a value is set.
func (s *Spec) HasValue() bool { return s.hasValue }

// Error returns the attached validation error message.
func (s *Spec) Error() string { return s.errMsg }

// SetError attaches a validation error message.
func (s *Spec) SetError(msg string) { s.errMsg = msg }

// Required reports whether a value must be submitted.
func (s *Spec) Required() bool { return s.Mandatory }

// Forbid lists mutually exclusive parameter ids.
func (s *Spec) Forbid() []string { return s.ForbidIDs }

// Require lists mutually required parameter ids.
func (s *Spec) Require() []string { return s.RequireIDs }

// AccessibleBy applies the allow/deny lists. Deny wins over allow.
func (s *Spec) AccessibleBy(user string) bool {
	for _, denied := range s.DenyUsers {
		if user == denied {
			return false
		}
	}
	if len(s.AllowUsers) == 0 {
		return true
	}
	for _, allowed := range s.AllowUsers {
		if user == allowed {
			return true
		}
	}
	return false
}

// store records a coerced value.
func (s *Spec) store(value string) {
	s.value = value
	s.hasValue = true
}

// copySpec returns a value copy with independent slices.
func (s *Spec) copySpec() Spec {
	c := *s
	c.ForbidIDs = append([]string(nil), s.ForbidIDs...)
	c.RequireIDs = append([]string(nil), s.RequireIDs...)
	c.AllowUsers = append([]string(nil), s.AllowUsers...)
	c.DenyUsers = append([]string(nil), s.DenyUsers...)
	return c
}

// StringParameter accepts any string value.
type StringParameter struct {
	Spec
}

// SetValue stores the raw value as-is.
func (p *StringParameter) SetValue(raw string) error {
	p.store(raw)
	return nil
}

// Copy returns an independent copy of the parameter.
func (p *StringParameter) Copy() Parameter {
	return &StringParameter{Spec: p.copySpec()}
}

// BoolParameter accepts boolean values. A submitted value is coerced with
// strconv.ParseBool semantics plus the conventional yes/no forms.
type BoolParameter struct {
	Spec
}

// SetValue coerces the raw value to "true" or "false".
func (p *BoolParameter) SetValue(raw string) error {
	switch strings.ToLower(raw) {
	case "yes", "y", "on":
		p.store("true")
		return nil
	case "no", "n", "off":
		p.store("false")
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("not a boolean value: %q", raw)
	}
	p.store(strconv.FormatBool(v))
	return nil
}

// Copy returns an independent copy of the parameter.
func (p *BoolParameter) Copy() Parameter {
	return &BoolParameter{Spec: p.copySpec()}
}

// IntParameter accepts integer values, optionally range-restricted.
type IntParameter struct {
	Spec
	Min *int // inclusive lower bound, nil for none
	Max *int // inclusive upper bound, nil for none
}

// SetValue coerces the raw value to an integer and checks the range.
func (p *IntParameter) SetValue(raw string) error {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("not an integer value: %q", raw)
	}
	if p.Min != nil && v < *p.Min {
		return fmt.Errorf("value %d is below the minimum of %d", v, *p.Min)
	}
	if p.Max != nil && v > *p.Max {
		return fmt.Errorf("value %d is above the maximum of %d", v, *p.Max)
	}
	p.store(strconv.Itoa(v))
	return nil
}

// Copy returns an independent copy of the parameter.
func (p *IntParameter) Copy() Parameter {
	c := &IntParameter{Spec: p.copySpec()}
	if p.Min != nil {
		min := *p.Min
		c.Min = &min
	}
	if p.Max != nil {
		max := *p.Max
		c.Max = &max
	}
	return c
}

// FloatParameter accepts floating-point values.
type FloatParameter struct {
	Spec
}

// SetValue coerces the raw value to a float.
func (p *FloatParameter) SetValue(raw string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("not a numeric value: %q", raw)
	}
	p.store(strconv.FormatFloat(v, 'g', -1, 64))
	return nil
}

// Copy returns an independent copy of the parameter.
func (p *FloatParameter) Copy() Parameter {
	return &FloatParameter{Spec: p.copySpec()}
}

// ChoiceParameter restricts the value to a fixed set of choices. When
// Multi is set, a submission may name several choices separated by commas.
type ChoiceParameter struct {
	Spec
	Choices []string
	Multi   bool
}

// SetValue validates the raw value against the choice list.
func (p *ChoiceParameter) SetValue(raw string) error {
	if p.Multi {
		parts := strings.Split(raw, ",")
		for _, part := range parts {
			if !p.validChoice(strings.TrimSpace(part)) {
				return fmt.Errorf("%q is not a valid choice (allowed: %s)", part, strings.Join(p.Choices, ", "))
			}
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		p.store(strings.Join(parts, ","))
		return nil
	}
	if !p.validChoice(raw) {
		return fmt.Errorf("%q is not a valid choice (allowed: %s)", raw, strings.Join(p.Choices, ", "))
	}
	p.store(raw)
	return nil
}

func (p *ChoiceParameter) validChoice(v string) bool {
	for _, c := range p.Choices {
		if v == c {
			return true
		}
	}
	return false
}

// Copy returns an independent copy of the parameter.
func (p *ChoiceParameter) Copy() Parameter {
	c := &ChoiceParameter{Spec: p.copySpec(), Multi: p.Multi}
	c.Choices = append([]string(nil), p.Choices...)
	return c
}

// Values collapses a parameter list into a flat id→value map, skipping
// parameters without a value. This is the shape the condition evaluator and
// metafield resolvers consume.
func Values(parameters []Parameter) map[string]string {
	result := make(map[string]string, len(parameters))
	for _, p := range parameters {
		if p.HasValue() {
			result[p.ID()] = p.Value()
		}
	}
	return result
}

// CopyAll returns independent copies of all parameters, preserving order.
func CopyAll(parameters []Parameter) []Parameter {
	copies := make([]Parameter, len(parameters))
	for i, p := range parameters {
		copies[i] = p.Copy()
	}
	return copies
}
