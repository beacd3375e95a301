package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/profile"
)

// sidecarPrefix and sidecarSuffix frame the per-file metadata sidecar:
// a data file "input.txt" is described by ".input.txt.meta.yaml".
const (
	sidecarPrefix = "."
	sidecarSuffix = ".meta.yaml"
)

// sidecarDoc is the on-disk shape of one file's association record.
type sidecarDoc struct {
	Template   string            `yaml:"template"`
	Sequence   int               `yaml:"sequence"`
	Format     string            `yaml:"format"`
	Attributes map[string]string `yaml:"attributes"`
}

// LoadDir reconstructs a file index from a project directory. Every data
// file is expected to carry a sidecar document naming its input template,
// sequence number, format, and attributes. Files without a sidecar are
// ignored; a malformed sidecar fails the load.
func LoadDir(dir string, formats *metadata.Registry) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading project directory %s: %w", dir, err)
	}

	index := NewIndex()
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sidecarPrefix) || !strings.HasSuffix(name, sidecarSuffix) {
			continue
		}
		dataName := strings.TrimSuffix(strings.TrimPrefix(name, sidecarPrefix), sidecarSuffix)
		if dataName == "" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading sidecar for %s: %w", dataName, err)
		}

		var doc sidecarDoc
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing sidecar for %s: %w", dataName, err)
		}
		if doc.Template == "" {
			return nil, fmt.Errorf("sidecar for %s names no template", dataName)
		}

		format, ok := formats.Get(doc.Format)
		if !ok {
			return nil, fmt.Errorf("sidecar for %s names unknown format %s", dataName, doc.Format)
		}

		keys := make([]string, 0, len(doc.Attributes))
		for key := range doc.Attributes {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		record, err := format.New(keys, doc.Attributes)
		if err != nil {
			return nil, fmt.Errorf("metadata for %s: %w", dataName, err)
		}
		record.InputTemplateID = doc.Template

		if err := index.Add(doc.Template, doc.Sequence, dataName, record); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// WriteSidecar persists one file's association record next to the data
// file, in the shape LoadDir reads back.
func WriteSidecar(dir, dataName string, file profile.InputFile) error {
	if file.Metadata == nil {
		return fmt.Errorf("file %s has no metadata to persist", dataName)
	}
	doc := sidecarDoc{
		Template:   file.TemplateID,
		Sequence:   file.Sequence,
		Format:     file.Metadata.Format().ID,
		Attributes: file.Metadata.Attributes().Map(),
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding sidecar for %s: %w", dataName, err)
	}
	path := filepath.Join(dir, sidecarPrefix+dataName+sidecarSuffix)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing sidecar for %s: %w", dataName, err)
	}
	return nil
}
