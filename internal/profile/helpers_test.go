package profile

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toolbridge/toolbridge/internal/metadata"
)

// fakeIndex is a minimal in-memory FileIndex for tests.
type fakeIndex struct {
	files map[string][]InputFile
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{files: make(map[string][]InputFile)}
}

func (f *fakeIndex) add(templateID string, sequence int, name string, record *metadata.Record) {
	f.files[templateID] = append(f.files[templateID], InputFile{
		Sequence:   sequence,
		Name:       name,
		TemplateID: templateID,
		Metadata:   record,
	})
}

func (f *fakeIndex) FilesForTemplate(templateID string) ([]InputFile, error) {
	files := append([]InputFile(nil), f.files[templateID]...)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Sequence < files[j].Sequence
	})
	return files, nil
}

// plainText is a permissive text format for tests.
func plainText() *metadata.Format {
	return &metadata.Format{
		ID:       "PlainTextFormat",
		Mimetype: "text/plain",
		Attrs: metadata.NewSchema(map[string]metadata.Constraint{
			"encoding": metadata.OptionalAttr(),
			"language": metadata.OptionalAttr(),
			"title":    metadata.OptionalAttr(),
		}),
	}
}

// strictFormat rejects any encoding outside its enumeration.
func strictFormat() *metadata.Format {
	return &metadata.Format{
		ID:       "StrictTextFormat",
		Mimetype: "text/plain",
		Attrs: metadata.NewSchema(map[string]metadata.Constraint{
			"encoding": metadata.EnumeratedAttr(true, "utf-8", "latin1"),
		}),
	}
}

// freeForm accepts any attribute.
func freeForm() *metadata.Format {
	return &metadata.Format{ID: "UndefinedFormat"}
}

func mustRecord(t *testing.T, format *metadata.Format, kv ...string) *metadata.Record {
	t.Helper()
	require.Zero(t, len(kv)%2, "kv must be key/value pairs")
	keys := make([]string, 0, len(kv)/2)
	values := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		keys = append(keys, kv[i])
		values[kv[i]] = kv[i+1]
	}
	record, err := format.New(keys, values)
	require.NoError(t, err)
	return record
}
