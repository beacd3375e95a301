// Package config loads declarative profile definitions from YAML documents
// and builds the validated engine objects out of them. Profiles are static
// configuration: every structural defect is detected here, at startup,
// before any request is processed. Errors are aggregated so one pass over a
// config file reports every problem it has.
package config

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/params"
	"github.com/toolbridge/toolbridge/internal/profile"
)

// Document is the top-level shape of a profile definition file.
type Document struct {
	Formats  []FormatDef  `yaml:"formats"`
	Profiles []ProfileDef `yaml:"profiles"`
}

// FormatDef declares a custom format and its attribute schema.
type FormatDef struct {
	ID          string                  `yaml:"id"`
	Mimetype    string                  `yaml:"mimetype"`
	Schema      string                  `yaml:"schema"`
	FreeForm    bool                    `yaml:"free_form"`
	AllowCustom bool                    `yaml:"allow_custom"`
	Attributes  map[string]AttributeDef `yaml:"attributes"`
}

// AttributeDef declares one attribute constraint.
type AttributeDef struct {
	Kind        string   `yaml:"kind"`
	Values      []string `yaml:"values"`
	Value       string   `yaml:"value"`
	AllowAbsent bool     `yaml:"allow_absent"`
}

// ProfileDef declares one profile.
type ProfileDef struct {
	Name   string           `yaml:"name"`
	Input  []InputDef       `yaml:"input"`
	Output []OutputEntryDef `yaml:"output"`
}

// InputDef declares one input template.
type InputDef struct {
	ID         string         `yaml:"id"`
	Format     string         `yaml:"format"`
	Label      string         `yaml:"label"`
	Unique     *bool          `yaml:"unique"` // defaults to true
	Filename   string         `yaml:"filename"`
	Extension  string         `yaml:"extension"`
	Parameters []ParameterDef `yaml:"parameters"`
}

// ParameterDef declares one parameter specification.
type ParameterDef struct {
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"` // string, bool, int, float, choice
	Label      string   `yaml:"label"`
	Required   bool     `yaml:"required"`
	Forbid     []string `yaml:"forbid"`
	Require    []string `yaml:"require"`
	AllowUsers []string `yaml:"allow_users"`
	DenyUsers  []string `yaml:"deny_users"`
	Choices    []string `yaml:"choices"`
	Multi      bool     `yaml:"multi"`
	Min        *int     `yaml:"min"`
	Max        *int     `yaml:"max"`
}

// OutputEntryDef is one output-list entry: a template or a condition.
type OutputEntryDef struct {
	Template *OutputDef    `yaml:"template"`
	When     *ConditionDef `yaml:"when"`
}

// OutputDef declares one output template.
type OutputDef struct {
	ID               string              `yaml:"id"`
	Format           string              `yaml:"format"`
	Label            string              `yaml:"label"`
	Unique           *bool               `yaml:"unique"` // defaults to true
	Filename         string              `yaml:"filename"`
	Extension        string              `yaml:"extension"`
	Parent           string              `yaml:"parent"`
	CopyMetadata     bool                `yaml:"copy_metadata"`
	RemoveExtensions RemoveExtensionsDef `yaml:"remove_extensions"`
	MetaFields       []MetaFieldDef      `yaml:"metafields"`
}

// RemoveExtensionsDef accepts either the scalar "all" or a list of
// extension names.
type RemoveExtensionsDef struct {
	All   bool
	Names []string
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *RemoveExtensionsDef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "all" {
			return fmt.Errorf("remove_extensions must be \"all\" or a list of extensions, got %q", node.Value)
		}
		d.All = true
		return nil
	case yaml.SequenceNode:
		return node.Decode(&d.Names)
	default:
		return fmt.Errorf("remove_extensions must be \"all\" or a list of extensions")
	}
}

// MetaFieldDef declares one metafield rule. Exactly one member is set.
type MetaFieldDef struct {
	Set       *SetDef       `yaml:"set"`
	Unset     *UnsetDef     `yaml:"unset"`
	Copy      *CopyDef      `yaml:"copy"`
	Parameter *ParamRefDef  `yaml:"parameter"`
	When      *ConditionDef `yaml:"when"`
}

// SetDef declares a set metafield.
type SetDef struct {
	Key   string    `yaml:"key"`
	Value yaml.Node `yaml:"value"`
}

// UnsetDef declares an unset metafield; Value is an optional guard.
type UnsetDef struct {
	Key   string     `yaml:"key"`
	Value *yaml.Node `yaml:"value"`
}

// CopyDef declares a copy metafield.
type CopyDef struct {
	Key    string `yaml:"key"`
	From   string `yaml:"from"`
	Policy string `yaml:"policy"`
}

// ParamRefDef declares a from-parameter metafield.
type ParamRefDef struct {
	Key       string `yaml:"key"`
	Parameter string `yaml:"parameter"`
}

// ConditionDef declares a parameter condition with recursive branches.
type ConditionDef struct {
	Conditions  []ClauseDef `yaml:"conditions"`
	Disjunction bool        `yaml:"disjunction"`
	Then        *BranchDef  `yaml:"then"`
	Otherwise   *BranchDef  `yaml:"otherwise"`
}

// ClauseDef is one comparison in a condition.
type ClauseDef struct {
	Parameter string    `yaml:"parameter"`
	Operator  string    `yaml:"operator"`
	Value     yaml.Node `yaml:"value"`
}

// BranchDef is one arm of a condition: a nested condition, an output
// template (output-list context), or a metafield (metafield context).
type BranchDef struct {
	When      *ConditionDef `yaml:"when"`
	Template  *OutputDef    `yaml:"template"`
	Set       *SetDef       `yaml:"set"`
	Unset     *UnsetDef     `yaml:"unset"`
	Copy      *CopyDef      `yaml:"copy"`
	Parameter *ParamRefDef  `yaml:"parameter"`
}

// scalarValue extracts a scalar from a YAML node. Sequences and mappings
// are rejected: metadata values and comparison values are scalars only.
func scalarValue(node yaml.Node, context string) (string, error) {
	if node.Kind == 0 {
		return "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s: composite values are not allowed, expected a scalar", context)
	}
	return node.Value, nil
}

// Parse decodes a profile definition document.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing profile definitions: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and builds a profile definition file against the given
// format registry. Custom formats declared by the document are registered
// before any profile referencing them is built.
func LoadFile(path string, formats *metadata.Registry) ([]*profile.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile definitions: %w", err)
	}
	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return Build(doc, formats)
}

// Build turns a parsed document into validated profiles. All defects across
// the whole document are aggregated into one error.
func Build(doc *Document, formats *metadata.Registry) ([]*profile.Profile, error) {
	var errs error

	for _, def := range doc.Formats {
		format, err := buildFormat(def)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if err := formats.Register(format); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	profiles := make([]*profile.Profile, 0, len(doc.Profiles))
	for _, def := range doc.Profiles {
		p, err := buildProfile(def, formats)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("profile %s: %w", def.Name, err))
			continue
		}
		profiles = append(profiles, p)
	}

	if errs != nil {
		return nil, errs
	}
	return profiles, nil
}

func buildFormat(def FormatDef) (*metadata.Format, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("format declaration has no id")
	}
	format := &metadata.Format{ID: def.ID, Mimetype: def.Mimetype, Schema: def.Schema}
	if def.FreeForm {
		return format, nil
	}

	var errs error
	attrs := make(map[string]metadata.Constraint, len(def.Attributes))
	for name, attr := range def.Attributes {
		kind, err := metadata.ParseConstraintKind(attr.Kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("format %s, attribute %s: %w", def.ID, name, err))
			continue
		}
		constraint := metadata.Constraint{
			Kind:        kind,
			Values:      attr.Values,
			Value:       attr.Value,
			AllowAbsent: attr.AllowAbsent,
		}
		if kind == metadata.Enumerated && len(attr.Values) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("format %s, attribute %s: enumerated constraint needs values", def.ID, name))
			continue
		}
		attrs[name] = constraint
	}
	if errs != nil {
		return nil, errs
	}

	schema := metadata.NewSchema(attrs)
	schema.AllowCustom = def.AllowCustom
	format.Attrs = schema
	return format, nil
}

func buildProfile(def ProfileDef, formats *metadata.Registry) (*profile.Profile, error) {
	var errs error

	inputs := make([]*profile.InputTemplate, 0, len(def.Input))
	for _, in := range def.Input {
		t, err := buildInput(in, formats)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		inputs = append(inputs, t)
	}

	outputs := make([]profile.OutputEntry, 0, len(def.Output))
	for i, out := range def.Output {
		entry, err := buildOutputEntry(out, formats)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output entry %d: %w", i+1, err))
			continue
		}
		outputs = append(outputs, entry)
	}

	if errs != nil {
		return nil, errs
	}
	return profile.NewProfile(def.Name, inputs, outputs)
}

func buildInput(def InputDef, formats *metadata.Registry) (*profile.InputTemplate, error) {
	format, ok := formats.Get(def.Format)
	if !ok {
		return nil, fmt.Errorf("input template %s: unknown format %s", def.ID, def.Format)
	}

	var opts []profile.InputTemplateOption
	if def.Unique != nil && !*def.Unique {
		opts = append(opts, profile.WithMulti())
	}
	if def.Filename != "" {
		opts = append(opts, profile.WithFilename(def.Filename))
	}
	if def.Extension != "" {
		opts = append(opts, profile.WithExtension(def.Extension))
	}

	var errs error
	parameters := make([]params.Parameter, 0, len(def.Parameters))
	for _, pd := range def.Parameters {
		p, err := buildParameter(pd)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("input template %s: %w", def.ID, err))
			continue
		}
		parameters = append(parameters, p)
	}
	if errs != nil {
		return nil, errs
	}
	if len(parameters) > 0 {
		opts = append(opts, profile.WithParameters(parameters...))
	}

	return profile.NewInputTemplate(def.ID, format, def.Label, opts...)
}

func buildParameter(def ParameterDef) (params.Parameter, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("parameter declaration has no id")
	}
	spec := params.Spec{
		Ident:      def.ID,
		Name:       def.Label,
		Mandatory:  def.Required,
		ForbidIDs:  def.Forbid,
		RequireIDs: def.Require,
		AllowUsers: def.AllowUsers,
		DenyUsers:  def.DenyUsers,
	}
	switch def.Type {
	case "string", "":
		return &params.StringParameter{Spec: spec}, nil
	case "bool":
		return &params.BoolParameter{Spec: spec}, nil
	case "int":
		return &params.IntParameter{Spec: spec, Min: def.Min, Max: def.Max}, nil
	case "float":
		return &params.FloatParameter{Spec: spec}, nil
	case "choice":
		if len(def.Choices) == 0 {
			return nil, fmt.Errorf("parameter %s: choice parameter needs choices", def.ID)
		}
		return &params.ChoiceParameter{Spec: spec, Choices: def.Choices, Multi: def.Multi}, nil
	default:
		return nil, fmt.Errorf("parameter %s: unknown type %s", def.ID, def.Type)
	}
}

func buildOutputEntry(def OutputEntryDef, formats *metadata.Registry) (profile.OutputEntry, error) {
	switch {
	case def.Template != nil && def.When == nil:
		t, err := buildOutput(*def.Template, formats)
		if err != nil {
			return profile.OutputEntry{}, err
		}
		return profile.TemplateEntry(t), nil
	case def.When != nil && def.Template == nil:
		c, err := buildCondition(*def.When, formats, branchOutput)
		if err != nil {
			return profile.OutputEntry{}, err
		}
		return profile.ConditionalEntry(c), nil
	default:
		return profile.OutputEntry{}, fmt.Errorf("entry must be exactly one of template or when")
	}
}

func buildOutput(def OutputDef, formats *metadata.Registry) (*profile.OutputTemplate, error) {
	format, ok := formats.Get(def.Format)
	if !ok {
		return nil, fmt.Errorf("output template %s: unknown format %s", def.ID, def.Format)
	}

	var opts []profile.OutputTemplateOption
	if def.Unique != nil && !*def.Unique {
		opts = append(opts, profile.OutMulti())
	}
	if def.Filename != "" {
		opts = append(opts, profile.OutFilename(def.Filename))
	}
	if def.Extension != "" {
		opts = append(opts, profile.OutExtension(def.Extension))
	}
	if def.Parent != "" {
		opts = append(opts, profile.OutParent(def.Parent))
	}
	if def.CopyMetadata {
		opts = append(opts, profile.OutCopyMetadata())
	}
	if def.RemoveExtensions.All || len(def.RemoveExtensions.Names) > 0 {
		opts = append(opts, profile.OutRemoveExtensions(profile.RemoveExtensions{
			All:   def.RemoveExtensions.All,
			Names: def.RemoveExtensions.Names,
		}))
	}

	var errs error
	rules := make([]profile.MetaFieldRule, 0, len(def.MetaFields))
	for i, mf := range def.MetaFields {
		rule, err := buildMetaFieldRule(mf, formats)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("output template %s, metafield %d: %w", def.ID, i+1, err))
			continue
		}
		rules = append(rules, rule)
	}
	if errs != nil {
		return nil, errs
	}
	if len(rules) > 0 {
		opts = append(opts, profile.OutMetaFields(rules...))
	}

	return profile.NewOutputTemplate(def.ID, format, def.Label, opts...)
}

func buildMetaFieldRule(def MetaFieldDef, formats *metadata.Registry) (profile.MetaFieldRule, error) {
	if def.When != nil {
		c, err := buildCondition(*def.When, formats, branchMetaField)
		if err != nil {
			return profile.MetaFieldRule{}, err
		}
		return profile.ConditionalRule(c), nil
	}
	field, err := buildMetaField(def)
	if err != nil {
		return profile.MetaFieldRule{}, err
	}
	return profile.FieldRule(field), nil
}

func buildMetaField(def MetaFieldDef) (profile.MetaField, error) {
	switch {
	case def.Set != nil:
		value, err := scalarValue(def.Set.Value, fmt.Sprintf("set %s", def.Set.Key))
		if err != nil {
			return nil, err
		}
		return profile.SetMetaField{Key: def.Set.Key, Value: value}, nil
	case def.Unset != nil:
		field := profile.UnsetMetaField{Key: def.Unset.Key}
		if def.Unset.Value != nil {
			value, err := scalarValue(*def.Unset.Value, fmt.Sprintf("unset %s", def.Unset.Key))
			if err != nil {
				return nil, err
			}
			field.Value = value
			field.HasValue = true
		}
		return field, nil
	case def.Copy != nil:
		policy, err := profile.ParseCopyPolicy(def.Copy.Policy)
		if err != nil {
			return nil, err
		}
		if def.Copy.From == "" {
			return nil, fmt.Errorf("copy %s: missing source", def.Copy.Key)
		}
		return profile.CopyMetaField{Key: def.Copy.Key, Source: def.Copy.From, Policy: policy}, nil
	case def.Parameter != nil:
		if def.Parameter.Parameter == "" {
			return nil, fmt.Errorf("parameter metafield %s: missing parameter id", def.Parameter.Key)
		}
		return profile.ParameterMetaField{Key: def.Parameter.Key, Parameter: def.Parameter.Parameter}, nil
	default:
		return nil, fmt.Errorf("metafield must be one of set, unset, copy, parameter, when")
	}
}

// branchKind selects what terminals a condition's branches may hold.
type branchKind int

const (
	branchOutput branchKind = iota
	branchMetaField
)

func buildCondition(def ConditionDef, formats *metadata.Registry, kind branchKind) (*profile.ParameterCondition, error) {
	pc := &profile.ParameterCondition{Disjunction: def.Disjunction}

	var errs error
	for _, clause := range def.Conditions {
		op, err := profile.ParseOperator(clause.Operator)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		value, err := scalarValue(clause.Value, fmt.Sprintf("condition on %s", clause.Parameter))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		pc.Conditions = append(pc.Conditions, profile.Condition{
			Parameter: clause.Parameter,
			Value:     value,
			Op:        op,
		})
	}

	if def.Then == nil {
		errs = multierr.Append(errs, fmt.Errorf("condition has no then branch"))
	} else {
		branch, err := buildBranch(*def.Then, formats, kind)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			pc.Then = branch
		}
	}
	if def.Otherwise != nil {
		branch, err := buildBranch(*def.Otherwise, formats, kind)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else {
			pc.Otherwise = &branch
		}
	}

	if errs != nil {
		return nil, errs
	}
	return pc, nil
}

func buildBranch(def BranchDef, formats *metadata.Registry, kind branchKind) (profile.Branch, error) {
	if def.When != nil {
		nested, err := buildCondition(*def.When, formats, kind)
		if err != nil {
			return profile.Branch{}, err
		}
		return profile.ConditionBranch(nested), nil
	}

	switch kind {
	case branchOutput:
		if def.Template == nil {
			return profile.Branch{}, fmt.Errorf("branch in output context must be a template or a nested when")
		}
		t, err := buildOutput(*def.Template, formats)
		if err != nil {
			return profile.Branch{}, err
		}
		return profile.TerminalBranch(t), nil
	case branchMetaField:
		field, err := buildMetaField(MetaFieldDef{
			Set:       def.Set,
			Unset:     def.Unset,
			Copy:      def.Copy,
			Parameter: def.Parameter,
		})
		if err != nil {
			return profile.Branch{}, err
		}
		return profile.TerminalBranch(field), nil
	default:
		return profile.Branch{}, fmt.Errorf("unknown branch context")
	}
}
