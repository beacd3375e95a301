package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/toolbridge/internal/metadata"
	"github.com/toolbridge/toolbridge/internal/profile"
)

func TestSidecarRoundtrip(t *testing.T) {
	dir := t.TempDir()
	formats := metadata.NewRegistry()

	original := profile.InputFile{
		Sequence:   2,
		Name:       "chapter2.txt",
		TemplateID: "chapters",
		Metadata:   textRecord(t, "nl"),
	}
	require.NoError(t, WriteSidecar(dir, original.Name, original))
	require.NoError(t, os.WriteFile(filepath.Join(dir, original.Name), []byte("inhoud"), 0o644))

	index, err := LoadDir(dir, formats)
	require.NoError(t, err)

	files, err := index.FilesForTemplate("chapters")
	require.NoError(t, err)
	require.Len(t, files, 1)

	got := files[0]
	assert.Equal(t, "chapter2.txt", got.Name)
	assert.Equal(t, 2, got.Sequence)
	assert.Equal(t, "chapters", got.Metadata.InputTemplateID)
	language, _ := got.Metadata.Get("language")
	assert.Equal(t, "nl", language)
	encoding, _ := got.Metadata.Get("encoding")
	assert.Equal(t, "utf-8", encoding)
}

func TestLoadDir(t *testing.T) {
	t.Run("files without sidecars are ignored", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "loose.txt"), []byte("x"), 0o644))

		index, err := LoadDir(dir, metadata.NewRegistry())
		require.NoError(t, err)
		assert.Empty(t, index.Templates())
	})

	t.Run("malformed sidecar fails the load", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.txt.meta.yaml"), []byte("template: [unclosed"), 0o644))

		_, err := LoadDir(dir, metadata.NewRegistry())
		require.Error(t, err)
	})

	t.Run("sidecar without a template fails the load", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.txt.meta.yaml"),
			[]byte("sequence: 1\nformat: PlainTextFormat\n"), 0o644))

		_, err := LoadDir(dir, metadata.NewRegistry())
		require.Error(t, err)
	})

	t.Run("unknown format fails the load", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.txt.meta.yaml"),
			[]byte("template: in\nsequence: 1\nformat: NoSuchFormat\n"), 0o644))

		_, err := LoadDir(dir, metadata.NewRegistry())
		require.Error(t, err)
	})

	t.Run("schema violations surface through the load", func(t *testing.T) {
		dir := t.TempDir()
		// PlainTextFormat requires an encoding attribute.
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".a.txt.meta.yaml"),
			[]byte("template: in\nsequence: 1\nformat: PlainTextFormat\nattributes:\n  language: en\n"), 0o644))

		_, err := LoadDir(dir, metadata.NewRegistry())
		require.Error(t, err)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadDir(filepath.Join(t.TempDir(), "nope"), metadata.NewRegistry())
		require.Error(t, err)
	})
}
