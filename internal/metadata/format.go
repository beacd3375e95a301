package metadata

import (
	"fmt"
	"sync"
)

// Format describes one class of file the service can consume or produce:
// its identifier, mimetype, optional schema reference, and the attribute
// schema its metadata records must satisfy.
type Format struct {
	ID       string  // format identifier, e.g. "PlainTextFormat"
	Mimetype string  // mimetype reported to clients, may be empty
	Schema   string  // schema URL or identifier, may be empty
	Attrs    *Schema // nil means free-form metadata
}

// New constructs a metadata record of this format from the supplied
// attributes. Validation happens once here: every key/value pair is checked
// against the attribute schema, fixed attributes are forced, and missing
// mandatory attributes fail with IncompleteError. Keys are applied in the
// order given.
func (f *Format) New(keys []string, values map[string]string) (*Record, error) {
	attrs := NewAttributes()
	for _, key := range keys {
		value, ok := values[key]
		if !ok {
			continue
		}
		if err := f.Attrs.Validate(f.ID, key, value); err != nil {
			return nil, err
		}
		attrs.Set(key, value)
	}

	f.Attrs.applyFixed(attrs)

	if err := f.Attrs.CheckComplete(f.ID, attrs); err != nil {
		return nil, err
	}

	return &Record{format: f, attrs: attrs}, nil
}

// NewFromAttributes constructs a record from an already-ordered attribute
// map. The input is cloned; the caller keeps ownership of attrs.
func (f *Format) NewFromAttributes(attrs *Attributes) (*Record, error) {
	return f.New(attrs.Keys(), attrs.Map())
}

// Registry holds the known formats. The built-in formats are registered at
// construction; profile configurations may add their own.
type Registry struct {
	mu      sync.RWMutex
	formats map[string]*Format
}

// NewRegistry creates a registry pre-populated with the built-in formats.
func NewRegistry() *Registry {
	r := &Registry{formats: make(map[string]*Format)}
	for _, f := range builtinFormats() {
		r.formats[f.ID] = f
	}
	return r
}

// Register adds a format. Registering a duplicate ID is an error.
func (r *Registry) Register(f *Format) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formats[f.ID]; exists {
		return fmt.Errorf("format %s is already registered", f.ID)
	}
	r.formats[f.ID] = f
	return nil
}

// Get retrieves a format by ID.
func (r *Registry) Get(id string) (*Format, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formats[id]
	return f, ok
}

// List returns the IDs of all registered formats.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.formats))
	for id := range r.formats {
		ids = append(ids, id)
	}
	return ids
}

// builtinFormats returns the format classes every installation knows about.
func builtinFormats() []*Format {
	return []*Format{
		{
			ID:       "UndefinedFormat",
			Mimetype: "application/octet-stream",
			Attrs:    nil, // free-form
		},
		{
			ID:       "PlainTextFormat",
			Mimetype: "text/plain",
			Attrs: NewSchema(map[string]Constraint{
				"encoding": RequiredAttr(),
				"language": OptionalAttr(),
			}),
		},
		{
			ID:       "XMLFormat",
			Mimetype: "application/xml",
			Attrs: NewSchema(map[string]Constraint{
				"encoding": FixedAttr("utf-8"),
				"schema":   OptionalAttr(),
			}),
		},
		{
			ID:       "JSONFormat",
			Mimetype: "application/json",
			Attrs: NewSchema(map[string]Constraint{
				"encoding": FixedAttr("utf-8"),
			}),
		},
		{
			ID:       "CSVFormat",
			Mimetype: "text/csv",
			Attrs: NewSchema(map[string]Constraint{
				"encoding":  RequiredAttr(),
				"delimiter": EnumeratedAttr(true, ",", ";", "\t"),
			}),
		},
	}
}
