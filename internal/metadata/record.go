package metadata

import (
	"time"

	"github.com/google/uuid"
)

// Record is a validated metadata bag describing one file. Records are
// created through Format.New, which validates the full attribute set once;
// afterwards the shape only changes through Set, which re-checks the schema
// per write.
type Record struct {
	format *Format
	attrs  *Attributes

	// InputTemplateID back-references the input template this record was
	// generated for, when applicable.
	InputTemplateID string

	// Provenance records how the metadata came to be. Optional.
	Provenance *Provenance
}

// Format returns the record's format.
func (r *Record) Format() *Format {
	return r.format
}

// Get returns the value for key and whether it is present.
func (r *Record) Get(key string) (string, bool) {
	return r.attrs.Get(key)
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.attrs.Get(key)
	return ok
}

// Keys returns the attribute keys in insertion order.
func (r *Record) Keys() []string {
	return r.attrs.Keys()
}

// Set writes an attribute, re-validating against the schema. Fixed
// attributes keep their forced value regardless of the input.
func (r *Record) Set(key, value string) error {
	if r.format.Attrs != nil {
		if c, ok := r.format.Attrs.Attributes[key]; ok && c.Kind == Fixed {
			r.attrs.Set(key, c.Value)
			return nil
		}
	}
	if err := r.format.Attrs.Validate(r.format.ID, key, value); err != nil {
		return err
	}
	r.attrs.Set(key, value)
	return nil
}

// Attributes returns a copy of the record's attributes.
func (r *Record) Attributes() *Attributes {
	return r.attrs.Clone()
}

// Provenance records the origin of a generated metadata record.
type Provenance struct {
	ID         string    `json:"id"`                    // unique id for this generation
	Timestamp  time.Time `json:"timestamp"`             // when the record was generated
	Profile    string    `json:"profile,omitempty"`     // name of the generating profile
	ParentFile string    `json:"parent_file,omitempty"` // input filename the output derives from
}

// NewProvenance stamps a provenance record for the given profile and parent
// input filename. parentFile may be empty for parentless outputs.
func NewProvenance(profile, parentFile string) *Provenance {
	return &Provenance{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Profile:    profile,
		ParentFile: parentFile,
	}
}
