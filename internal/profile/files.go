package profile

import "github.com/toolbridge/toolbridge/internal/metadata"

// InputFile is one concrete file associated with an input template: its
// position in the template's sequence, its name, and its metadata. Sequence
// number 0 means the file applies to every sequence position.
type InputFile struct {
	Sequence   int
	Name       string
	TemplateID string
	Metadata   *metadata.Record
}

// FileIndex is the file-association collaborator: it knows which concrete
// files are registered against which input template. Implementations must
// return files ordered by ascending sequence number. The index is read-only
// within this engine.
type FileIndex interface {
	FilesForTemplate(templateID string) ([]InputFile, error)
}

// Artifact is one generated output: the derived filename and the metadata
// record synthesized for it.
type Artifact struct {
	Filename string
	Metadata *metadata.Record
}
