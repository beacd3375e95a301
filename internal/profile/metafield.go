package profile

import (
	"fmt"
	"strings"

	"github.com/toolbridge/toolbridge/internal/metadata"
)

// MetaField is an atomic rule contributing one attribute to the metadata
// draft of a generated output file. Resolvers run in declaration order;
// later rules may overwrite earlier ones at the same key.
type MetaField interface {
	Terminal

	// Resolve applies the rule to the draft and reports whether it
	// mutated anything.
	Resolve(draft *metadata.Attributes, parameters map[string]string, parent *InputFile, relevant []InputFile) (bool, error)

	// Describe returns the rule's presentation shape, tagged with its
	// operator (set, unset, copy, parameter).
	Describe() MetaFieldDescription
}

// MetaFieldDescription is the presentation-layer shape of one metafield.
type MetaFieldDescription struct {
	Operator  string `json:"operator"`
	Key       string `json:"key"`
	Value     string `json:"value,omitempty"`
	Source    string `json:"source,omitempty"`
	Parameter string `json:"parameter,omitempty"`
}

// SetMetaField unconditionally writes a value.
type SetMetaField struct {
	Key   string
	Value string
}

func (f SetMetaField) isBranchTerminal() {}

// Resolve writes the value and always reports a mutation.
func (f SetMetaField) Resolve(draft *metadata.Attributes, _ map[string]string, _ *InputFile, _ []InputFile) (bool, error) {
	draft.Set(f.Key, f.Value)
	return true, nil
}

// Describe returns the rule's presentation shape.
func (f SetMetaField) Describe() MetaFieldDescription {
	return MetaFieldDescription{Operator: "set", Key: f.Key, Value: f.Value}
}

// UnsetMetaField deletes a key. When a value is given, deletion only
// happens if the current value equals it.
type UnsetMetaField struct {
	Key      string
	Value    string
	HasValue bool
}

func (f UnsetMetaField) isBranchTerminal() {}

// Resolve deletes the key when the guard allows it, reporting whether a
// deletion occurred.
func (f UnsetMetaField) Resolve(draft *metadata.Attributes, _ map[string]string, _ *InputFile, _ []InputFile) (bool, error) {
	if f.HasValue {
		current, ok := draft.Get(f.Key)
		if !ok || current != f.Value {
			return false, nil
		}
	}
	return draft.Delete(f.Key), nil
}

// Describe returns the rule's presentation shape.
func (f UnsetMetaField) Describe() MetaFieldDescription {
	d := MetaFieldDescription{Operator: "unset", Key: f.Key}
	if f.HasValue {
		d.Value = f.Value
	}
	return d
}

// CopyPolicy decides what a copy metafield does when several relevant input
// files carry its source template.
type CopyPolicy int

const (
	// CopyLastWins takes the last matching file in iteration order.
	CopyLastWins CopyPolicy = iota

	// CopyFirstWins takes the first matching file.
	CopyFirstWins

	// CopyErrorOnAmbiguity fails generation when more than one file matches.
	CopyErrorOnAmbiguity
)

// String returns the string representation of the copy policy
func (p CopyPolicy) String() string {
	switch p {
	case CopyLastWins:
		return "last"
	case CopyFirstWins:
		return "first"
	case CopyErrorOnAmbiguity:
		return "error"
	default:
		return "unknown"
	}
}

// ParseCopyPolicy converts a string to a CopyPolicy
func ParseCopyPolicy(s string) (CopyPolicy, error) {
	switch s {
	case "last", "":
		return CopyLastWins, nil
	case "first":
		return CopyFirstWins, nil
	case "error":
		return CopyErrorOnAmbiguity, nil
	default:
		return 0, fmt.Errorf("unknown copy policy: %s", s)
	}
}

// CopyMetaField copies a metadata value from a relevant input file. Source
// is either a template id (copy the same key) or "templateID.key".
type CopyMetaField struct {
	Key    string
	Source string
	Policy CopyPolicy
}

func (f CopyMetaField) isBranchTerminal() {}

// sourceParts splits Source into template id and source key. When no key is
// given the field's own key is used.
func (f CopyMetaField) sourceParts() (templateID, key string) {
	if i := strings.IndexByte(f.Source, '.'); i >= 0 {
		return f.Source[:i], f.Source[i+1:]
	}
	return f.Source, f.Key
}

// Resolve scans the relevant input files for the source template and copies
// the source key's value into the draft, reporting whether a copy occurred.
func (f CopyMetaField) Resolve(draft *metadata.Attributes, _ map[string]string, _ *InputFile, relevant []InputFile) (bool, error) {
	templateID, sourceKey := f.sourceParts()

	var matches []InputFile
	for _, file := range relevant {
		if file.TemplateID == templateID {
			matches = append(matches, file)
		}
	}
	if len(matches) == 0 {
		return false, nil
	}
	if len(matches) > 1 && f.Policy == CopyErrorOnAmbiguity {
		return false, &AmbiguousCopyError{Key: f.Key, Source: templateID}
	}

	chosen := matches[len(matches)-1]
	if f.Policy == CopyFirstWins {
		chosen = matches[0]
	}

	if chosen.Metadata == nil {
		return false, nil
	}
	value, ok := chosen.Metadata.Get(sourceKey)
	if !ok {
		return false, nil
	}
	draft.Set(f.Key, value)
	return true, nil
}

// Describe returns the rule's presentation shape.
func (f CopyMetaField) Describe() MetaFieldDescription {
	return MetaFieldDescription{Operator: "copy", Key: f.Key, Source: f.Source}
}

// ParameterMetaField pulls a value from the submitted parameters. Absent
// parameters make the rule a no-op.
type ParameterMetaField struct {
	Key       string
	Parameter string
}

func (f ParameterMetaField) isBranchTerminal() {}

// Resolve copies the parameter value into the draft if it was submitted.
func (f ParameterMetaField) Resolve(draft *metadata.Attributes, parameters map[string]string, _ *InputFile, _ []InputFile) (bool, error) {
	value, ok := parameters[f.Parameter]
	if !ok {
		return false, nil
	}
	draft.Set(f.Key, value)
	return true, nil
}

// Describe returns the rule's presentation shape.
func (f ParameterMetaField) Describe() MetaFieldDescription {
	return MetaFieldDescription{Operator: "parameter", Key: f.Key, Parameter: f.Parameter}
}
