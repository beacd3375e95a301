package profile

import "fmt"

// ConfigurationError indicates a malformed profile or template definition.
// These are detected eagerly at Profile construction, before any request is
// processed, and abort startup.
type ConfigurationError struct {
	Profile string
	Reason  string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Profile == "" {
		return fmt.Sprintf("profile configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("profile %s: configuration error: %s", e.Profile, e.Reason)
}

// DanglingParentError indicates that an output template names a parent
// input template the owning profile does not declare.
type DanglingParentError struct {
	OutputID string
	ParentID string
}

// Error implements the error interface
func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("output template %s references parent input template %s, which is not declared by the profile", e.OutputID, e.ParentID)
}

// NoMatchingInputError indicates that generation found no files for the
// parent input template of an output template.
type NoMatchingInputError struct {
	OutputID string
	ParentID string
}

// Error implements the error interface
func (e *NoMatchingInputError) Error() string {
	return fmt.Sprintf("output template %s: no matching input files for parent template %s", e.OutputID, e.ParentID)
}

// UnresolvableOutputTemplateError indicates an output template that has no
// parent and does not qualify as a parentless output (unique with a literal
// filename).
type UnresolvableOutputTemplateError struct {
	OutputID string
}

// Error implements the error interface
func (e *UnresolvableOutputTemplateError) Error() string {
	return fmt.Sprintf("output template %s has no parent input template and is not a unique output with a literal filename", e.OutputID)
}

// AmbiguousCopyError indicates that a copy metafield configured to reject
// ambiguity found more than one relevant input file for its source template.
type AmbiguousCopyError struct {
	Key    string
	Source string
}

// Error implements the error interface
func (e *AmbiguousCopyError) Error() string {
	return fmt.Sprintf("copy metafield for %q: multiple input files match source template %s", e.Key, e.Source)
}
