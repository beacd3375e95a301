package profile

import (
	"fmt"
	"strings"

	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/params"
)

// SequencePlaceholder is the character in a filename pattern that is
// replaced by the sequence number of a non-unique template.
const SequencePlaceholder = "#"

// InputTemplate describes one class of input file a profile accepts: its
// format, multiplicity, filename policy, and the parameters that govern the
// file's metadata. Templates are shared, immutable configuration;
// validation always works on parameter copies.
type InputTemplate struct {
	ID         string
	Format     *metadata.Format
	Label      string
	Unique     bool // exactly one file expected; false means a sequence
	Filename   string
	Extension  string
	Parameters []params.Parameter
}

func (t *InputTemplate) isBranchTerminal() {}

// NewInputTemplate constructs and validates an input template.
func NewInputTemplate(id string, format *metadata.Format, label string, opts ...InputTemplateOption) (*InputTemplate, error) {
	t := &InputTemplate{ID: id, Format: format, Label: label, Unique: true}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// InputTemplateOption configures an input template at construction.
type InputTemplateOption func(*InputTemplate)

// WithMulti marks the template as accepting a sequence of files.
func WithMulti() InputTemplateOption {
	return func(t *InputTemplate) { t.Unique = false }
}

// WithFilename sets the filename pattern.
func WithFilename(pattern string) InputTemplateOption {
	return func(t *InputTemplate) { t.Filename = pattern }
}

// WithExtension sets the expected file extension.
func WithExtension(ext string) InputTemplateOption {
	return func(t *InputTemplate) { t.Extension = ext }
}

// WithParameters sets the template's parameter specifications.
func WithParameters(parameters ...params.Parameter) InputTemplateOption {
	return func(t *InputTemplate) { t.Parameters = parameters }
}

// check enforces the template invariants.
func (t *InputTemplate) check() error {
	if t.ID == "" {
		return &ConfigurationError{Reason: "input template has no id"}
	}
	if strings.ContainsAny(t.ID, "/\\") {
		return &ConfigurationError{Reason: fmt.Sprintf("input template id %q contains a path separator", t.ID)}
	}
	if t.Format == nil {
		return &ConfigurationError{Reason: fmt.Sprintf("input template %s has no format", t.ID)}
	}
	if !t.Unique && t.Filename != "" && !strings.Contains(t.Filename, SequencePlaceholder) {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"input template %s accepts multiple files but its filename pattern %q has no %s placeholder",
			t.ID, t.Filename, SequencePlaceholder)}
	}
	return nil
}

// MatchingFiles returns the files registered against this template, ordered
// by ascending sequence number. A unique template with anything other than
// exactly one file is unmatched and yields an empty result.
func (t *InputTemplate) MatchingFiles(index FileIndex) ([]InputFile, error) {
	files, err := index.FilesForTemplate(t.ID)
	if err != nil {
		return nil, fmt.Errorf("looking up files for template %s: %w", t.ID, err)
	}
	if t.Unique && len(files) != 1 {
		return nil, nil
	}
	return files, nil
}

// Validate checks a submission against the template's parameter
// specifications. It operates on copies — the template itself is never
// mutated — and returns the resolved parameters with any errors attached to
// the offending instances. hasErrors is true if any parameter failed.
func (t *InputTemplate) Validate(submission map[string]string, user string) (resolved []params.Parameter, hasErrors bool) {
	resolved = params.CopyAll(t.Parameters)

	for _, p := range resolved {
		raw, submitted := submission[p.ID()]
		if submitted && p.AccessibleBy(user) {
			if err := p.SetValue(raw); err != nil {
				p.SetError(err.Error())
				hasErrors = true
			}
		}
		if p.Required() && !p.HasValue() && p.Error() == "" {
			p.SetError("this parameter is required")
			hasErrors = true
		}
	}

	// Cross-checks run over the resolved set: a parameter with a value may
	// forbid or require other parameters in the same template.
	byID := make(map[string]params.Parameter, len(resolved))
	for _, p := range resolved {
		byID[p.ID()] = p
	}
	for _, p := range resolved {
		if !p.HasValue() {
			continue
		}
		for _, forbidden := range p.Forbid() {
			if other, ok := byID[forbidden]; ok && other.HasValue() {
				p.SetError(fmt.Sprintf("may not be set together with %s", forbidden))
				other.SetError(fmt.Sprintf("may not be set together with %s", p.ID()))
				hasErrors = true
			}
		}
		for _, required := range p.Require() {
			if other, ok := byID[required]; !ok || !other.HasValue() {
				p.SetError(fmt.Sprintf("also requires %s to be set", required))
				hasErrors = true
			}
		}
	}

	return resolved, hasErrors
}

// Generate validates the submission and, if error-free, constructs a
// metadata record for an input file of this template from the resolved
// parameter values. Schema violations during construction propagate.
func (t *InputTemplate) Generate(submission map[string]string, user string) (*metadata.Record, []params.Parameter, error) {
	resolved, hasErrors := t.Validate(submission, user)
	if hasErrors {
		return nil, resolved, fmt.Errorf("parameter validation failed for input template %s", t.ID)
	}
	return t.GenerateFromValidated(resolved)
}

// GenerateFromValidated constructs the metadata record from a prior
// validation result, in parameter declaration order.
func (t *InputTemplate) GenerateFromValidated(resolved []params.Parameter) (*metadata.Record, []params.Parameter, error) {
	keys := make([]string, 0, len(resolved))
	values := make(map[string]string, len(resolved))
	for _, p := range resolved {
		if p.HasValue() {
			keys = append(keys, p.ID())
			values[p.ID()] = p.Value()
		}
	}
	record, err := t.Format.New(keys, values)
	if err != nil {
		return nil, resolved, err
	}
	record.InputTemplateID = t.ID
	return record, resolved, nil
}

// TemplateDescription is the presentation-layer shape of a template.
type TemplateDescription struct {
	ID         string                                   `json:"id"`
	Kind       string                                   `json:"kind"` // "input" or "output"
	Label      string                                   `json:"label"`
	Format     string                                   `json:"format"`
	Mimetype   string                                   `json:"mimetype,omitempty"`
	Schema     string                                   `json:"schema,omitempty"`
	Unique     bool                                     `json:"unique"`
	Filename   string                                   `json:"filename,omitempty"`
	Extension  string                                   `json:"extension,omitempty"`
	Attributes map[string]metadata.ConstraintDescription `json:"attributes,omitempty"`
	Parameters []ParameterDescription                   `json:"parameters,omitempty"`
	MetaFields []MetaFieldEntry                         `json:"metafields,omitempty"`
	Parent     string                                   `json:"parent,omitempty"`
}

// ParameterDescription is the presentation-layer shape of one parameter.
type ParameterDescription struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Forbid   []string `json:"forbid,omitempty"`
	Require  []string `json:"require,omitempty"`
}

// MetaFieldEntry is one metafield rule in a template description: either a
// plain rule or a nested condition.
type MetaFieldEntry struct {
	Field     *MetaFieldDescription `json:"field,omitempty"`
	Condition *ConditionDescription `json:"condition,omitempty"`
}

// Describe returns a serializable description of the template.
func (t *InputTemplate) Describe() TemplateDescription {
	desc := TemplateDescription{
		ID:         t.ID,
		Kind:       "input",
		Label:      t.Label,
		Format:     t.Format.ID,
		Mimetype:   t.Format.Mimetype,
		Schema:     t.Format.Schema,
		Unique:     t.Unique,
		Filename:   t.Filename,
		Extension:  t.Extension,
		Attributes: t.Format.Attrs.Describe(),
	}
	for _, p := range t.Parameters {
		desc.Parameters = append(desc.Parameters, ParameterDescription{
			ID:       p.ID(),
			Label:    p.Label(),
			Required: p.Required(),
			Forbid:   p.Forbid(),
			Require:  p.Require(),
		})
	}
	return desc
}
