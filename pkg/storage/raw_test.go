package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casecorpus/pkg/models"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"R. v. Smith", "R.v.Smith"},
		{"a/b\\c:d", "a-b-c-d"},
		{"what?*now", "what-now"},
		{`say "hi"`, "say'hi'"},
		{"one, two", "one-two"},
		{"50% & more!", "50-more"},
		{"--x__y--", "x-y"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestDocumentIDDependsOnlyOnURL(t *testing.T) {
	u := "https://decisions.scc-csc.ca/scc-csc/scc-csc/en/item/19062/index.do"

	id := DocumentID(u)
	assert.Equal(t, id, DocumentID(u))
	assert.True(t, strings.HasPrefix(id, "19062-"), id)
	assert.NotEqual(t, id, DocumentID(u+"?lang=fr"))
	assert.True(t, strings.HasPrefix(DocumentID("https://example.com/"), "doc-"))
}

func TestRawStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewRawStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())

	link := models.LinkRecord{SourceURL: "https://example.com/en/item/1/index.do"}
	assert.False(t, store.Has(link.SourceURL))

	err = store.Put(models.RawDocument{Link: link, Content: []byte("<html>case</html>")})
	require.NoError(t, err)
	assert.True(t, store.Has(link.SourceURL))

	doc, err := store.Get(link)
	require.NoError(t, err)
	assert.Equal(t, "<html>case</html>", string(doc.Content))
	assert.Equal(t, DocumentID(link.SourceURL), doc.ID)

	// A second store over the same directory sees existing files
	reopened, err := NewRawStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())

	_, err = store.Get(models.LinkRecord{SourceURL: "https://example.com/missing"})
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
