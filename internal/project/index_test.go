package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/toolbridge/internal/metadata"
)

func textRecord(t *testing.T, language string) *metadata.Record {
	t.Helper()
	format, ok := metadata.NewRegistry().Get("PlainTextFormat")
	require.True(t, ok)
	record, err := format.New(
		[]string{"encoding", "language"},
		map[string]string{"encoding": "utf-8", "language": language})
	require.NoError(t, err)
	return record
}

func TestIndexAdd(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("in", 1, "a.txt", textRecord(t, "en")))

	t.Run("duplicate sequence is rejected", func(t *testing.T) {
		err := index.Add("in", 1, "b.txt", textRecord(t, "en"))
		require.Error(t, err)
	})

	t.Run("sequence zero may repeat", func(t *testing.T) {
		require.NoError(t, index.Add("aux", 0, "x.txt", textRecord(t, "en")))
		require.NoError(t, index.Add("aux", 0, "y.txt", textRecord(t, "fr")))
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		err := index.Add("aux", 3, "x.txt", textRecord(t, "en"))
		require.Error(t, err)
	})

	t.Run("same name under another template is fine", func(t *testing.T) {
		require.NoError(t, index.Add("other", 1, "a.txt", textRecord(t, "en")))
	})
}

func TestIndexFilesForTemplate(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("in", 3, "c.txt", textRecord(t, "en")))
	require.NoError(t, index.Add("in", 1, "a.txt", textRecord(t, "en")))
	require.NoError(t, index.Add("in", 2, "b.txt", textRecord(t, "en")))

	files, err := index.FilesForTemplate("in")
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.txt", files[0].Name)
	assert.Equal(t, "b.txt", files[1].Name)
	assert.Equal(t, "c.txt", files[2].Name)

	t.Run("unknown template is empty, not an error", func(t *testing.T) {
		files, err := index.FilesForTemplate("nosuch")
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestIndexRemove(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("in", 1, "a.txt", textRecord(t, "en")))

	assert.True(t, index.Remove("in", "a.txt"))
	assert.False(t, index.Remove("in", "a.txt"), "second removal is a no-op")

	files, err := index.FilesForTemplate("in")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndexTemplates(t *testing.T) {
	index := NewIndex()
	require.NoError(t, index.Add("second", 1, "b.txt", textRecord(t, "en")))
	require.NoError(t, index.Add("first", 1, "a.txt", textRecord(t, "en")))

	assert.Equal(t, []string{"first", "second"}, index.Templates())

	index.Remove("first", "a.txt")
	assert.Equal(t, []string{"second"}, index.Templates(), "emptied templates drop out")
}
