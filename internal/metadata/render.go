package metadata

import (
	"encoding/xml"
	"strings"
)

// XML renders the record in the service's metadata document shape:
//
//	<Metadata format="..." mimetype="..." schema="...">
//	    <meta id="key">value</meta>
//	</Metadata>
//
// Only the logical shape is contractual; consumers parse it structurally.
func (r *Record) XML() string {
	var b strings.Builder
	b.WriteString(`<Metadata format="`)
	b.WriteString(escapeXML(r.format.ID))
	b.WriteString(`"`)
	if r.format.Mimetype != "" {
		b.WriteString(` mimetype="`)
		b.WriteString(escapeXML(r.format.Mimetype))
		b.WriteString(`"`)
	}
	if r.format.Schema != "" {
		b.WriteString(` schema="`)
		b.WriteString(escapeXML(r.format.Schema))
		b.WriteString(`"`)
	}
	if r.InputTemplateID != "" {
		b.WriteString(` inputtemplate="`)
		b.WriteString(escapeXML(r.InputTemplateID))
		b.WriteString(`"`)
	}
	b.WriteString(">\n")
	for _, key := range r.attrs.Keys() {
		value, _ := r.attrs.Get(key)
		b.WriteString(`  <meta id="`)
		b.WriteString(escapeXML(key))
		b.WriteString(`">`)
		b.WriteString(escapeXML(value))
		b.WriteString("</meta>\n")
	}
	b.WriteString("</Metadata>\n")
	return b.String()
}

// Description is the presentation-layer shape of a metadata record.
type Description struct {
	Format          string           `json:"format"`
	Mimetype        string           `json:"mimetype,omitempty"`
	Schema          string           `json:"schema,omitempty"`
	InputTemplateID string           `json:"input_template,omitempty"`
	Attributes      []AttributeValue `json:"attributes"`
	Provenance      *Provenance      `json:"provenance,omitempty"`
}

// AttributeValue is one key/value pair in declaration order.
type AttributeValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Describe returns a serializable description of the record.
func (r *Record) Describe() Description {
	attrs := make([]AttributeValue, 0, r.attrs.Len())
	for _, key := range r.attrs.Keys() {
		value, _ := r.attrs.Get(key)
		attrs = append(attrs, AttributeValue{Key: key, Value: value})
	}
	return Description{
		Format:          r.format.ID,
		Mimetype:        r.format.Mimetype,
		Schema:          r.format.Schema,
		InputTemplateID: r.InputTemplateID,
		Attributes:      attrs,
		Provenance:      r.Provenance,
	}
}

// escapeXML escapes a string for use in XML text and attribute content.
func escapeXML(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
