// Package profile implements the profile resolution and metadata generation
// engine: declarative input/output templates, parameter conditions,
// metafield resolvers, and the matching algorithm that decides which
// profiles apply to a submission and what output artifacts they produce.
package profile

import (
	"errors"
	"fmt"
)

// ErrNotMatched is returned by Profile.Generate when the profile does not
// match the current file and parameter state.
var ErrNotMatched = errors.New("profile does not match the current file and parameter state")

// OutputEntry is one entry in a profile's output list: either an output
// template or a parameter condition selecting between output templates.
// Exactly one of the two fields is set.
type OutputEntry struct {
	Template  *OutputTemplate
	Condition *ParameterCondition
}

// TemplateEntry wraps an output template in an output entry.
func TemplateEntry(t *OutputTemplate) OutputEntry {
	return OutputEntry{Template: t}
}

// ConditionalEntry wraps a parameter condition in an output entry.
func ConditionalEntry(c *ParameterCondition) OutputEntry {
	return OutputEntry{Condition: c}
}

// Profile pairs the input file classes a service run expects with the
// output file classes it produces. Profiles are constructed once from
// static configuration and are immutable afterwards; construction validates
// every structural invariant so misconfiguration aborts startup instead of
// surfacing mid-request.
type Profile struct {
	Name   string
	Input  []*InputTemplate
	Output []OutputEntry

	inputsByID map[string]*InputTemplate
}

// NewProfile constructs and validates a profile. Every parameter condition
// in the output list is expanded here to verify that each reachable branch
// is an output template with a resolvable parent; this is build-time
// validation only, never runtime evaluation.
func NewProfile(name string, inputs []*InputTemplate, outputs []OutputEntry) (*Profile, error) {
	p := &Profile{
		Name:       name,
		Input:      inputs,
		Output:     outputs,
		inputsByID: make(map[string]*InputTemplate, len(inputs)),
	}

	for _, in := range inputs {
		if in == nil {
			return nil, &ConfigurationError{Profile: name, Reason: "nil input template"}
		}
		if _, dup := p.inputsByID[in.ID]; dup {
			return nil, &ConfigurationError{Profile: name, Reason: fmt.Sprintf("duplicate input template id %s", in.ID)}
		}
		p.inputsByID[in.ID] = in
	}

	for _, entry := range outputs {
		if (entry.Template == nil) == (entry.Condition == nil) {
			return nil, &ConfigurationError{Profile: name, Reason: "output entry is neither a template nor a condition"}
		}

		if entry.Template != nil {
			if err := p.resolveParent(entry.Template); err != nil {
				return nil, err
			}
			continue
		}

		if err := entry.Condition.Validate(); err != nil {
			return nil, &ConfigurationError{Profile: name, Reason: err.Error()}
		}
		for _, terminal := range entry.Condition.AllPossibilities() {
			out, ok := terminal.(*OutputTemplate)
			if !ok {
				return nil, &ConfigurationError{Profile: name,
					Reason: "output condition resolves to something other than an output template"}
			}
			if err := p.resolveParent(out); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

// resolveParent assigns or verifies an output template's parent linkage.
// Runs during construction, before the profile is shared.
func (p *Profile) resolveParent(t *OutputTemplate) error {
	if t.Parent != "" {
		if _, ok := p.inputsByID[t.Parent]; !ok {
			return &DanglingParentError{OutputID: t.ID, ParentID: t.Parent}
		}
		return nil
	}
	if t.parentless() {
		return nil
	}
	parent := t.findParent(p.Input)
	if parent == "" {
		return &UnresolvableOutputTemplateError{OutputID: t.ID}
	}
	t.Parent = parent
	return nil
}

// inputTemplate resolves an input template id against the profile's input
// list. Failure is a dangling-parent error, never a nil dereference.
func (p *Profile) inputTemplate(id string) (*InputTemplate, error) {
	in, ok := p.inputsByID[id]
	if !ok {
		return nil, &DanglingParentError{ParentID: id}
	}
	return in, nil
}

// Match reports whether this profile applies: every input template must
// have at least one matching file (an empty input list matches vacuously),
// the output list must be non-empty, and every parameter condition
// appearing directly in the output list must be satisfied. Plain output
// templates impose no parameter constraint.
func (p *Profile) Match(index FileIndex, parameters map[string]string) (bool, error) {
	if len(p.Output) == 0 {
		return false, nil
	}
	for _, in := range p.Input {
		files, err := in.MatchingFiles(index)
		if err != nil {
			return false, err
		}
		if len(files) == 0 {
			return false, nil
		}
	}
	for _, entry := range p.Output {
		if entry.Condition != nil && !entry.Condition.Match(parameters) {
			return false, nil
		}
	}
	return true, nil
}

// MatchingFiles returns the union of all input templates' matching files,
// in input declaration order.
func (p *Profile) MatchingFiles(index FileIndex) ([]InputFile, error) {
	var all []InputFile
	for _, in := range p.Input {
		files, err := in.MatchingFiles(index)
		if err != nil {
			return nil, err
		}
		all = append(all, files...)
	}
	return all, nil
}

// Generate re-checks the match and produces the artifacts of every output
// entry. Conditional entries are evaluated against the parameters and
// skipped when nothing matches.
func (p *Profile) Generate(index FileIndex, parameters map[string]string) ([]Artifact, error) {
	matched, err := p.Match(index, parameters)
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNotMatched
	}

	var artifacts []Artifact
	for _, entry := range p.Output {
		template := entry.Template
		if entry.Condition != nil {
			terminal, ok := entry.Condition.Evaluate(parameters)
			if !ok {
				continue
			}
			// Construction guarantees output conditions only resolve to
			// output templates.
			template = terminal.(*OutputTemplate)
		}
		generated, err := template.Generate(p, parameters, index)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, generated...)
	}
	return artifacts, nil
}

// Describe returns a serializable description of the profile.
func (p *Profile) Describe() ProfileDescription {
	desc := ProfileDescription{Name: p.Name}
	for _, in := range p.Input {
		desc.Input = append(desc.Input, in.Describe())
	}
	for _, entry := range p.Output {
		if entry.Condition != nil {
			condition := entry.Condition.Describe()
			desc.Output = append(desc.Output, OutputEntryDescription{Condition: &condition})
			continue
		}
		template := entry.Template.Describe()
		desc.Output = append(desc.Output, OutputEntryDescription{Template: &template})
	}
	return desc
}

// ProfileDescription is the presentation-layer shape of a profile.
type ProfileDescription struct {
	Name   string                   `json:"name"`
	Input  []TemplateDescription    `json:"input"`
	Output []OutputEntryDescription `json:"output"`
}

// OutputEntryDescription is one output-list entry in a profile description.
type OutputEntryDescription struct {
	Template  *TemplateDescription  `json:"template,omitempty"`
	Condition *ConditionDescription `json:"condition,omitempty"`
}
