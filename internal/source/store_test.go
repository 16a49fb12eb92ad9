package source

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

func writeFiles(t *testing.T, fsys afero.Fs, files map[string]string) {
	t.Helper()
	for p, content := range files {
		require.NoError(t, afero.WriteFile(fsys, p, []byte(content), 0o644))
	}
}

func TestStoreLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"src/index.html":      "home",
		"src/b/page.html":     "nested",
		"src/a.html":          "!norender {{ raw }}",
		"src/lib.tmpl":        "{{ define \"m\" }}x{{ end }}",
		"src/b/lib.tmpl":      "not the library",
		"elsewhere/skip.html": "outside",
	})

	store := NewStore(fsys, "src", WithMacroLibrary("lib.tmpl"), WithLiteralMarker("!norender"))
	files, err := store.Load(context.Background())
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.html", "b/lib.tmpl", "b/page.html", "index.html"}, paths)

	assert.True(t, files[0].Literal)
	assert.False(t, files[3].Literal)
	assert.Equal(t, "home", files[3].Raw)
	assert.Equal(t, files[3].Raw, files[3].Rendered)
}

func TestStoreLoadMissingRoot(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "nope")
	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestStoreLoadRejectsBinary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "src/blob.bin", []byte{0xff, 0xfe, 0x00}, 0o644))

	_, err := NewStore(fsys, "src").Load(context.Background())
	require.Error(t, err)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryFileSystem, ce.Category())
	assert.Equal(t, "blob.bin", ce.Context()["path"])
}

func TestStoreLoadCancelled(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"src/a.html": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStore(fsys, "src").Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadMacroLibrary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"src/lib.tmpl": "macros"})

	text, found, err := NewStore(fsys, "src", WithMacroLibrary("lib.tmpl")).LoadMacroLibrary()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "macros", text)

	text, found, err = NewStore(fsys, "src", WithMacroLibrary("missing.tmpl")).LoadMacroLibrary()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, text)
}

func TestNewContext(t *testing.T) {
	ctx := NewContext([]*File{{Path: "a", Raw: "1"}, {Path: "b/c", Raw: "2"}})
	assert.Equal(t, Context{"a": "1", "b/c": "2"}, ctx)
}
