package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFormat(attrs map[string]Constraint) *Format {
	return &Format{ID: "TestFormat", Mimetype: "text/plain", Attrs: NewSchema(attrs)}
}

func TestConstructionRequiresMandatoryAttributes(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"encoding": RequiredAttr(),
		"language": OptionalAttr(),
	})

	t.Run("missing required attribute", func(t *testing.T) {
		_, err := format.New([]string{"language"}, map[string]string{"language": "en"})
		require.Error(t, err)
		var incomplete *IncompleteError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "encoding", incomplete.Key)
	})

	t.Run("all mandatory attributes present", func(t *testing.T) {
		record, err := format.New([]string{"encoding"}, map[string]string{"encoding": "utf-8"})
		require.NoError(t, err)
		value, ok := record.Get("encoding")
		require.True(t, ok)
		assert.Equal(t, "utf-8", value)
	})

	t.Run("optional attribute may be absent", func(t *testing.T) {
		record, err := format.New([]string{"encoding"}, map[string]string{"encoding": "utf-8"})
		require.NoError(t, err)
		assert.False(t, record.Has("language"))
	})
}

func TestEnumeratedAttributes(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"language": EnumeratedAttr(false, "en", "fr"),
	})

	t.Run("value outside the range", func(t *testing.T) {
		_, err := format.New([]string{"language"}, map[string]string{"language": "de"})
		var invalid *InvalidValueError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "language", invalid.Key)
		assert.Equal(t, []string{"en", "fr"}, invalid.Allowed)
	})

	t.Run("value inside the range", func(t *testing.T) {
		record, err := format.New([]string{"language"}, map[string]string{"language": "fr"})
		require.NoError(t, err)
		value, _ := record.Get("language")
		assert.Equal(t, "fr", value)
	})

	t.Run("enumeration without absent sentinel is mandatory", func(t *testing.T) {
		_, err := format.New(nil, nil)
		var incomplete *IncompleteError
		require.ErrorAs(t, err, &incomplete)
	})

	t.Run("enumeration with absent sentinel may be absent", func(t *testing.T) {
		lenient := testFormat(map[string]Constraint{
			"language": EnumeratedAttr(true, "en", "fr"),
		})
		record, err := lenient.New(nil, nil)
		require.NoError(t, err)
		assert.False(t, record.Has("language"))
	})
}

func TestFixedAttributes(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"encoding": FixedAttr("utf-8"),
	})

	t.Run("forced when absent", func(t *testing.T) {
		record, err := format.New(nil, nil)
		require.NoError(t, err)
		value, ok := record.Get("encoding")
		require.True(t, ok)
		assert.Equal(t, "utf-8", value)
	})

	t.Run("forced over caller input", func(t *testing.T) {
		record, err := format.New([]string{"encoding"}, map[string]string{"encoding": "latin1"})
		require.NoError(t, err)
		value, _ := record.Get("encoding")
		assert.Equal(t, "utf-8", value)
	})

	t.Run("forced over per-write mutation", func(t *testing.T) {
		record, err := format.New(nil, nil)
		require.NoError(t, err)
		require.NoError(t, record.Set("encoding", "latin1"))
		value, _ := record.Get("encoding")
		assert.Equal(t, "utf-8", value)
	})
}

func TestFixedAttributeOrderIsStable(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"a": FixedAttr("1"),
		"b": FixedAttr("2"),
		"c": FixedAttr("3"),
		"d": FixedAttr("4"),
		"e": FixedAttr("5"),
		"f": FixedAttr("6"),
	})

	first, err := format.New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, first.Keys())

	// Identical constructions must yield the identical key sequence.
	for i := 0; i < 50; i++ {
		record, err := format.New(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Keys(), record.Keys())
	}

	t.Run("caller-supplied keys keep their position", func(t *testing.T) {
		mixed := testFormat(map[string]Constraint{
			"x":     FixedAttr("1"),
			"y":     FixedAttr("2"),
			"title": OptionalAttr(),
		})
		record, err := mixed.New([]string{"title"}, map[string]string{"title": "t"})
		require.NoError(t, err)
		assert.Equal(t, []string{"title", "x", "y"}, record.Keys())
	})
}

func TestIncompleteErrorSelectionIsStable(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"third":  RequiredAttr(),
		"second": RequiredAttr(),
		"first":  RequiredAttr(),
	})

	// With several attributes missing, the reported one is the sorted-first.
	for i := 0; i < 50; i++ {
		_, err := format.New(nil, nil)
		var incomplete *IncompleteError
		require.ErrorAs(t, err, &incomplete)
		assert.Equal(t, "first", incomplete.Key)
	}
}

func TestUndeclaredAttributes(t *testing.T) {
	t.Run("rejected on an explicit schema", func(t *testing.T) {
		format := testFormat(map[string]Constraint{"encoding": RequiredAttr()})
		_, err := format.New([]string{"encoding", "author"},
			map[string]string{"encoding": "utf-8", "author": "someone"})
		var violation *SchemaViolationError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "author", violation.Key)
	})

	t.Run("allowed with custom attributes enabled", func(t *testing.T) {
		schema := NewSchema(map[string]Constraint{"encoding": RequiredAttr()})
		schema.AllowCustom = true
		format := &Format{ID: "TestFormat", Attrs: schema}
		record, err := format.New([]string{"encoding", "author"},
			map[string]string{"encoding": "utf-8", "author": "someone"})
		require.NoError(t, err)
		assert.True(t, record.Has("author"))
	})

	t.Run("free-form format accepts anything", func(t *testing.T) {
		format := &Format{ID: "UndefinedFormat"}
		record, err := format.New([]string{"anything"}, map[string]string{"anything": "goes"})
		require.NoError(t, err)
		assert.True(t, record.Has("anything"))
	})
}

func TestSetRevalidatesPerWrite(t *testing.T) {
	format := testFormat(map[string]Constraint{
		"encoding": RequiredAttr(),
		"language": EnumeratedAttr(true, "en", "fr"),
	})
	record, err := format.New([]string{"encoding"}, map[string]string{"encoding": "utf-8"})
	require.NoError(t, err)

	require.NoError(t, record.Set("language", "en"))

	err = record.Set("language", "de")
	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)

	err = record.Set("author", "someone")
	var violation *SchemaViolationError
	require.ErrorAs(t, err, &violation)

	// Failed writes leave the record untouched.
	value, _ := record.Get("language")
	assert.Equal(t, "en", value)
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	t.Run("built-in formats are present", func(t *testing.T) {
		for _, id := range []string{"PlainTextFormat", "XMLFormat", "JSONFormat", "CSVFormat", "UndefinedFormat"} {
			_, ok := registry.Get(id)
			assert.True(t, ok, "expected built-in format %s", id)
		}
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := registry.Register(&Format{ID: "PlainTextFormat"})
		require.Error(t, err)
	})

	t.Run("custom registration", func(t *testing.T) {
		require.NoError(t, registry.Register(&Format{ID: "CustomFormat"}))
		_, ok := registry.Get("CustomFormat")
		assert.True(t, ok)
	})
}
