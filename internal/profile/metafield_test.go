package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolbridge/toolbridge/internal/metadata"
)

func TestSetMetaField(t *testing.T) {
	draft := metadata.NewAttributes()
	mutated, err := SetMetaField{Key: "encoding", Value: "utf-8"}.Resolve(draft, nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, mutated)
	value, _ := draft.Get("encoding")
	assert.Equal(t, "utf-8", value)
}

func TestUnsetMetaField(t *testing.T) {
	t.Run("unconditional delete", func(t *testing.T) {
		draft := metadata.NewAttributes()
		draft.Set("x", "v")
		mutated, err := UnsetMetaField{Key: "x"}.Resolve(draft, nil, nil, nil)
		require.NoError(t, err)
		assert.True(t, mutated)
		_, ok := draft.Get("x")
		assert.False(t, ok)
	})

	t.Run("guarded delete with matching value", func(t *testing.T) {
		draft := metadata.NewAttributes()
		draft.Set("x", "v")
		mutated, err := UnsetMetaField{Key: "x", Value: "v", HasValue: true}.Resolve(draft, nil, nil, nil)
		require.NoError(t, err)
		assert.True(t, mutated)
		_, ok := draft.Get("x")
		assert.False(t, ok)
	})

	t.Run("guarded delete with differing value", func(t *testing.T) {
		draft := metadata.NewAttributes()
		draft.Set("x", "w")
		mutated, err := UnsetMetaField{Key: "x", Value: "v", HasValue: true}.Resolve(draft, nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, mutated)
		value, ok := draft.Get("x")
		require.True(t, ok)
		assert.Equal(t, "w", value)
	})

	t.Run("absent key", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := UnsetMetaField{Key: "x"}.Resolve(draft, nil, nil, nil)
		require.NoError(t, err)
		assert.False(t, mutated)
	})
}

func TestCopyMetaField(t *testing.T) {
	format := plainText()
	first := InputFile{Sequence: 1, Name: "a.txt", TemplateID: "src",
		Metadata: mustRecord(t, format, "language", "en")}
	second := InputFile{Sequence: 2, Name: "b.txt", TemplateID: "src",
		Metadata: mustRecord(t, format, "language", "fr")}
	other := InputFile{Sequence: 1, Name: "c.txt", TemplateID: "other",
		Metadata: mustRecord(t, format, "language", "de")}
	relevant := []InputFile{first, second, other}

	t.Run("last wins by default", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := CopyMetaField{Key: "language", Source: "src"}.Resolve(draft, nil, nil, relevant)
		require.NoError(t, err)
		assert.True(t, mutated)
		value, _ := draft.Get("language")
		assert.Equal(t, "fr", value)
	})

	t.Run("first wins", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := CopyMetaField{Key: "language", Source: "src", Policy: CopyFirstWins}.Resolve(draft, nil, nil, relevant)
		require.NoError(t, err)
		assert.True(t, mutated)
		value, _ := draft.Get("language")
		assert.Equal(t, "en", value)
	})

	t.Run("error on ambiguity", func(t *testing.T) {
		draft := metadata.NewAttributes()
		_, err := CopyMetaField{Key: "language", Source: "src", Policy: CopyErrorOnAmbiguity}.Resolve(draft, nil, nil, relevant)
		var ambiguous *AmbiguousCopyError
		require.ErrorAs(t, err, &ambiguous)
	})

	t.Run("dotted source selects a different key", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := CopyMetaField{Key: "lang", Source: "other.language"}.Resolve(draft, nil, nil, relevant)
		require.NoError(t, err)
		assert.True(t, mutated)
		value, _ := draft.Get("lang")
		assert.Equal(t, "de", value)
	})

	t.Run("no matching template", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := CopyMetaField{Key: "language", Source: "absent"}.Resolve(draft, nil, nil, relevant)
		require.NoError(t, err)
		assert.False(t, mutated)
	})

	t.Run("source key missing on the chosen file", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := CopyMetaField{Key: "title", Source: "src.title"}.Resolve(draft, nil, nil, relevant)
		require.NoError(t, err)
		assert.False(t, mutated)
	})
}

func TestParameterMetaField(t *testing.T) {
	t.Run("copies a submitted parameter", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := ParameterMetaField{Key: "language", Parameter: "lang"}.
			Resolve(draft, map[string]string{"lang": "en"}, nil, nil)
		require.NoError(t, err)
		assert.True(t, mutated)
		value, _ := draft.Get("language")
		assert.Equal(t, "en", value)
	})

	t.Run("absent parameter is a no-op", func(t *testing.T) {
		draft := metadata.NewAttributes()
		mutated, err := ParameterMetaField{Key: "language", Parameter: "lang"}.
			Resolve(draft, map[string]string{}, nil, nil)
		require.NoError(t, err)
		assert.False(t, mutated)
		assert.Zero(t, draft.Len())
	})
}

func TestMetaFieldDescriptions(t *testing.T) {
	assert.Equal(t, "set", SetMetaField{Key: "k", Value: "v"}.Describe().Operator)
	assert.Equal(t, "unset", UnsetMetaField{Key: "k"}.Describe().Operator)
	assert.Equal(t, "copy", CopyMetaField{Key: "k", Source: "s"}.Describe().Operator)
	assert.Equal(t, "parameter", ParameterMetaField{Key: "k", Parameter: "p"}.Describe().Operator)
}

func TestLaterRulesOverwriteEarlier(t *testing.T) {
	draft := metadata.NewAttributes()
	rules := []MetaField{
		SetMetaField{Key: "encoding", Value: "latin1"},
		SetMetaField{Key: "encoding", Value: "utf-8"},
	}
	for _, rule := range rules {
		_, err := rule.Resolve(draft, nil, nil, nil)
		require.NoError(t, err)
	}
	value, _ := draft.Get("encoding")
	assert.Equal(t, "utf-8", value)
}
