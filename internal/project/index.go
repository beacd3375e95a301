// Package project implements the file-association collaborator the profile
// engine reads: which concrete files are registered against which input
// template, at which sequence number, with which metadata.
package project

import (
	"fmt"
	"sort"
	"sync"

	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/profile"
)

// Index is an in-memory file/template association. Registration happens
// when files are uploaded; the profile engine only ever reads.
type Index struct {
	mu      sync.RWMutex
	entries map[string][]profile.InputFile // template id -> files
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string][]profile.InputFile)}
}

// Add registers a file against an input template. Duplicate (template,
// sequence) pairs are rejected; a unique template's single file sits at
// sequence 1.
func (x *Index) Add(templateID string, sequence int, name string, record *metadata.Record) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, existing := range x.entries[templateID] {
		if existing.Sequence == sequence && sequence != 0 {
			return fmt.Errorf("template %s already has a file at sequence %d", templateID, sequence)
		}
		if existing.Name == name {
			return fmt.Errorf("file %s is already registered against template %s", name, templateID)
		}
	}

	x.entries[templateID] = append(x.entries[templateID], profile.InputFile{
		Sequence:   sequence,
		Name:       name,
		TemplateID: templateID,
		Metadata:   record,
	})
	return nil
}

// Remove unregisters a file by name and reports whether it was present.
func (x *Index) Remove(templateID, name string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	files := x.entries[templateID]
	for i, f := range files {
		if f.Name == name {
			x.entries[templateID] = append(files[:i], files[i+1:]...)
			return true
		}
	}
	return false
}

// FilesForTemplate returns the files registered against the template,
// sorted by ascending sequence number. Returns copies; the index retains
// ownership of its entries.
func (x *Index) FilesForTemplate(templateID string) ([]profile.InputFile, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	files := make([]profile.InputFile, len(x.entries[templateID]))
	copy(files, x.entries[templateID])
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Sequence < files[j].Sequence
	})
	return files, nil
}

// Templates returns the ids of all templates with at least one file.
func (x *Index) Templates() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ids := make([]string, 0, len(x.entries))
	for id, files := range x.entries {
		if len(files) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
