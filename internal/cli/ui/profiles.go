package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/toolbridge/toolbridge/internal/profile"
)

// RenderProfiles writes a human-readable listing of profile descriptions:
// one section per profile with a table of its templates, followed by the
// parameter and metafield summaries.
func RenderProfiles(w io.Writer, profiles []profile.ProfileDescription, noColor bool) {
	for _, p := range profiles {
		section := NewSection(w, "Profile "+p.Name, noColor)
		section.AddLine(fmt.Sprintf("%d input template(s), %d output entries", len(p.Input), len(p.Output)))
		section.Render()

		table := NewTable(w, []string{"ID", "KIND", "FORMAT", "UNIQUE", "PARENT", "FILENAME"}, &TableOptions{NoColor: noColor})
		for _, in := range p.Input {
			table.AddRow(in.ID, in.Kind, in.Format, strconv.FormatBool(in.Unique), "", in.Filename)
		}
		for _, entry := range p.Output {
			for _, out := range outputTemplates(entry) {
				table.AddRow(out.ID, out.Kind, out.Format, strconv.FormatBool(out.Unique), out.Parent, out.Filename)
			}
		}
		table.Render()
		fmt.Fprintln(w)

		for _, in := range p.Input {
			renderParameters(w, in, noColor)
		}
		for _, entry := range p.Output {
			for _, out := range outputTemplates(entry) {
				renderMetaFields(w, out, noColor)
			}
		}
	}
}

// outputTemplates flattens an output entry: a plain template is itself, a
// conditional entry contributes every template its branches can reach.
func outputTemplates(entry profile.OutputEntryDescription) []profile.TemplateDescription {
	if entry.Template != nil {
		return []profile.TemplateDescription{*entry.Template}
	}
	if entry.Condition == nil {
		return nil
	}
	var templates []profile.TemplateDescription
	collectBranchTemplates(entry.Condition, &templates)
	return templates
}

func collectBranchTemplates(c *profile.ConditionDescription, templates *[]profile.TemplateDescription) {
	branches := []*profile.BranchDescription{&c.Then}
	if c.Otherwise != nil {
		branches = append(branches, c.Otherwise)
	}
	for _, branch := range branches {
		if desc, ok := branch.Terminal.(profile.TemplateDescription); ok {
			*templates = append(*templates, desc)
		}
		if branch.Condition != nil {
			collectBranchTemplates(branch.Condition, templates)
		}
	}
}

func renderParameters(w io.Writer, in profile.TemplateDescription, noColor bool) {
	if len(in.Parameters) == 0 {
		return
	}
	section := NewSection(w, "Parameters of "+in.ID, noColor)
	for _, p := range in.Parameters {
		line := p.ID
		if p.Label != "" {
			line += " (" + p.Label + ")"
		}
		if p.Required {
			line += " required"
		}
		if len(p.Forbid) > 0 {
			line += " forbids " + strings.Join(p.Forbid, ", ")
		}
		if len(p.Require) > 0 {
			line += " requires " + strings.Join(p.Require, ", ")
		}
		section.AddLine(line)
	}
	section.Render()
}

func renderMetaFields(w io.Writer, out profile.TemplateDescription, noColor bool) {
	if len(out.MetaFields) == 0 {
		return
	}
	section := NewSection(w, "Metafields of "+out.ID, noColor)
	for _, rule := range out.MetaFields {
		if rule.Condition != nil {
			section.AddLine("conditional rule on " + conditionSummary(rule.Condition))
			continue
		}
		section.AddLine(metaFieldSummary(*rule.Field))
	}
	section.Render()
}

func metaFieldSummary(field profile.MetaFieldDescription) string {
	switch field.Operator {
	case "set":
		return fmt.Sprintf("set %s = %q", field.Key, field.Value)
	case "unset":
		return "unset " + field.Key
	case "copy":
		return fmt.Sprintf("copy %s from %s", field.Key, field.Source)
	case "parameter":
		return fmt.Sprintf("set %s from parameter %s", field.Key, field.Parameter)
	default:
		return field.Operator + " " + field.Key
	}
}

func conditionSummary(c *profile.ConditionDescription) string {
	parts := make([]string, 0, len(c.Conditions))
	for _, clause := range c.Conditions {
		parts = append(parts, fmt.Sprintf("%s %s %q", clause.Parameter, clause.Operator, clause.Value))
	}
	joiner := " and "
	if c.Disjunction {
		joiner = " or "
	}
	return strings.Join(parts, joiner)
}
