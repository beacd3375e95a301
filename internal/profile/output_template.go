package profile

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/toolbridge/toolbridge/internal/metadata"
)

// RemoveExtensions controls how an output template strips extensions from
// the filename it derives from its parent input file.
type RemoveExtensions struct {
	// All strips the single trailing extension, whatever it is.
	All bool

	// Names strips any of these extensions when present as a suffix.
	// Ignored when All is set.
	Names []string
}

// MetaFieldRule is one entry in an output template's metafield list: either
// a plain metafield or a parameter condition whose branches resolve to
// metafields. Exactly one of the two fields is set.
type MetaFieldRule struct {
	Field     MetaField
	Condition *ParameterCondition
}

// FieldRule wraps a plain metafield in a rule.
func FieldRule(f MetaField) MetaFieldRule {
	return MetaFieldRule{Field: f}
}

// ConditionalRule wraps a parameter condition in a rule.
func ConditionalRule(c *ParameterCondition) MetaFieldRule {
	return MetaFieldRule{Condition: c}
}

// OutputTemplate describes one class of output file a profile produces: its
// format, the metafield rules that synthesize its metadata, its linkage to
// a parent input template, and its filename policy.
type OutputTemplate struct {
	ID               string
	Format           *metadata.Format
	Label            string
	MetaFields       []MetaFieldRule
	Unique           bool
	Filename         string
	Extension        string
	RemoveExtensions RemoveExtensions

	// Parent names the input template this output derives from. When empty
	// the owning profile resolves one at construction, unless the template
	// is a parentless output (unique with a literal filename).
	Parent string

	// CopyMetadata seeds the metadata draft with every attribute of the
	// parent file before the metafield rules run.
	CopyMetadata bool
}

func (t *OutputTemplate) isBranchTerminal() {}

// NewOutputTemplate constructs and validates an output template.
func NewOutputTemplate(id string, format *metadata.Format, label string, opts ...OutputTemplateOption) (*OutputTemplate, error) {
	t := &OutputTemplate{ID: id, Format: format, Label: label, Unique: true}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.check(); err != nil {
		return nil, err
	}
	return t, nil
}

// OutputTemplateOption configures an output template at construction.
type OutputTemplateOption func(*OutputTemplate)

// OutMulti marks the template as producing a sequence of files.
func OutMulti() OutputTemplateOption {
	return func(t *OutputTemplate) { t.Unique = false }
}

// OutFilename sets a literal filename or pattern.
func OutFilename(pattern string) OutputTemplateOption {
	return func(t *OutputTemplate) { t.Filename = pattern }
}

// OutExtension sets the extension appended to derived filenames.
func OutExtension(ext string) OutputTemplateOption {
	return func(t *OutputTemplate) { t.Extension = ext }
}

// OutParent links the template to a parent input template by id.
func OutParent(inputTemplateID string) OutputTemplateOption {
	return func(t *OutputTemplate) { t.Parent = inputTemplateID }
}

// OutCopyMetadata seeds generated metadata from the parent file.
func OutCopyMetadata() OutputTemplateOption {
	return func(t *OutputTemplate) { t.CopyMetadata = true }
}

// OutRemoveExtensions configures extension stripping.
func OutRemoveExtensions(re RemoveExtensions) OutputTemplateOption {
	return func(t *OutputTemplate) { t.RemoveExtensions = re }
}

// OutMetaFields sets the metafield rule list.
func OutMetaFields(rules ...MetaFieldRule) OutputTemplateOption {
	return func(t *OutputTemplate) { t.MetaFields = rules }
}

// check enforces the template invariants, including that every metafield
// condition is well-formed and only ever resolves to metafields.
func (t *OutputTemplate) check() error {
	if t.ID == "" {
		return &ConfigurationError{Reason: "output template has no id"}
	}
	if strings.ContainsAny(t.ID, "/\\") {
		return &ConfigurationError{Reason: fmt.Sprintf("output template id %q contains a path separator", t.ID)}
	}
	if t.Format == nil {
		return &ConfigurationError{Reason: fmt.Sprintf("output template %s has no format", t.ID)}
	}
	if !t.Unique && t.Filename != "" && !strings.Contains(t.Filename, SequencePlaceholder) {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"output template %s produces multiple files but its filename pattern %q has no %s placeholder",
			t.ID, t.Filename, SequencePlaceholder)}
	}
	for _, rule := range t.MetaFields {
		if (rule.Field == nil) == (rule.Condition == nil) {
			return &ConfigurationError{Reason: fmt.Sprintf(
				"output template %s has a metafield rule that is neither a field nor a condition", t.ID)}
		}
		if rule.Condition == nil {
			continue
		}
		if err := rule.Condition.Validate(); err != nil {
			return &ConfigurationError{Reason: fmt.Sprintf("output template %s: %v", t.ID, err)}
		}
		for _, terminal := range rule.Condition.AllPossibilities() {
			if _, ok := terminal.(MetaField); !ok {
				return &ConfigurationError{Reason: fmt.Sprintf(
					"output template %s has a metafield condition resolving to something other than a metafield", t.ID)}
			}
		}
	}
	return nil
}

// findParent picks the first input template whose uniqueness matches this
// template's. It is a positional heuristic, not a content match.
func (t *OutputTemplate) findParent(inputs []*InputTemplate) string {
	for _, in := range inputs {
		if in.Unique == t.Unique {
			return in.ID
		}
	}
	return ""
}

// parentless reports whether the template qualifies as a context-free
// output: unique, with a literal filename, deriving from no input file.
func (t *OutputTemplate) parentless() bool {
	return t.Unique && t.Filename != ""
}

// Generate resolves the template against the owning profile's matched input
// files and the submitted parameters, producing one artifact per parent
// file (or exactly one for a parentless template).
func (t *OutputTemplate) Generate(owner *Profile, parameters map[string]string, index FileIndex) ([]Artifact, error) {
	if t.Parent == "" {
		if !t.parentless() {
			return nil, &UnresolvableOutputTemplateError{OutputID: t.ID}
		}
		record, err := t.buildRecord(owner, nil, nil, parameters)
		if err != nil {
			return nil, err
		}
		return []Artifact{{Filename: t.Filename, Metadata: record}}, nil
	}

	parent, err := owner.inputTemplate(t.Parent)
	if err != nil {
		return nil, err
	}
	parentFiles, err := parent.MatchingFiles(index)
	if err != nil {
		return nil, err
	}
	if len(parentFiles) == 0 {
		return nil, &NoMatchingInputError{OutputID: t.ID, ParentID: t.Parent}
	}

	allFiles, err := owner.MatchingFiles(index)
	if err != nil {
		return nil, err
	}

	artifacts := make([]Artifact, 0, len(parentFiles))
	for i := range parentFiles {
		parentFile := parentFiles[i]

		// Input files at sequence 0 apply to every position; the rest
		// correlate by sequence number.
		var relevant []InputFile
		for _, file := range allFiles {
			if file.Sequence == 0 || file.Sequence == parentFile.Sequence {
				relevant = append(relevant, file)
			}
		}

		record, err := t.buildRecord(owner, &parentFile, relevant, parameters)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{
			Filename: t.deriveFilename(parentFile),
			Metadata: record,
		})
	}
	return artifacts, nil
}

// deriveFilename computes the output filename for one parent file,
// following the template's filename policy.
func (t *OutputTemplate) deriveFilename(parentFile InputFile) string {
	name := t.Filename
	literal := name != ""
	if !literal {
		name = parentFile.Name
	}

	if !t.Unique {
		name = strings.ReplaceAll(name, SequencePlaceholder, strconv.Itoa(parentFile.Sequence))
	}

	if t.RemoveExtensions.All {
		if ext := filepath.Ext(name); ext != "" {
			name = strings.TrimSuffix(name, ext)
		}
	} else {
		for _, ext := range t.RemoveExtensions.Names {
			suffix := "." + strings.TrimPrefix(ext, ".")
			if strings.HasSuffix(name, suffix) {
				name = strings.TrimSuffix(name, suffix)
				break
			}
		}
	}

	// A literal filename pattern is taken as already complete.
	if t.Extension != "" && !literal {
		name += "." + strings.TrimPrefix(t.Extension, ".")
	}
	return name
}

// buildRecord assembles the metadata draft and constructs the record.
// parentFile is nil for parentless templates.
func (t *OutputTemplate) buildRecord(owner *Profile, parentFile *InputFile, relevant []InputFile, parameters map[string]string) (*metadata.Record, error) {
	draft := metadata.NewAttributes()

	if t.CopyMetadata && parentFile != nil && parentFile.Metadata != nil {
		for _, key := range parentFile.Metadata.Keys() {
			value, _ := parentFile.Metadata.Get(key)
			draft.Set(key, value)
		}
	}

	for _, rule := range t.MetaFields {
		field := rule.Field
		if rule.Condition != nil {
			terminal, matched := rule.Condition.Evaluate(parameters)
			if !matched {
				continue
			}
			mf, ok := terminal.(MetaField)
			if !ok {
				// Ruled out at construction; guards direct misuse.
				return nil, &ConfigurationError{Reason: fmt.Sprintf(
					"output template %s: metafield condition resolved to a non-metafield", t.ID)}
			}
			field = mf
		}
		if _, err := field.Resolve(draft, parameters, parentFile, relevant); err != nil {
			return nil, fmt.Errorf("output template %s: %w", t.ID, err)
		}
	}

	record, err := t.Format.New(draft.Keys(), draft.Map())
	if err != nil {
		return nil, fmt.Errorf("output template %s: %w", t.ID, err)
	}

	parentName := ""
	if parentFile != nil {
		parentName = parentFile.Name
	}
	record.Provenance = metadata.NewProvenance(owner.Name, parentName)
	return record, nil
}

// Describe returns a serializable description of the template, including
// its metafield rules tagged by operator.
func (t *OutputTemplate) Describe() TemplateDescription {
	desc := TemplateDescription{
		ID:         t.ID,
		Kind:       "output",
		Label:      t.Label,
		Format:     t.Format.ID,
		Mimetype:   t.Format.Mimetype,
		Schema:     t.Format.Schema,
		Unique:     t.Unique,
		Filename:   t.Filename,
		Extension:  t.Extension,
		Parent:     t.Parent,
		Attributes: t.Format.Attrs.Describe(),
	}
	for _, rule := range t.MetaFields {
		if rule.Condition != nil {
			condition := rule.Condition.Describe()
			desc.MetaFields = append(desc.MetaFields, MetaFieldEntry{Condition: &condition})
			continue
		}
		field := rule.Field.Describe()
		desc.MetaFields = append(desc.MetaFields, MetaFieldEntry{Field: &field})
	}
	return desc
}
