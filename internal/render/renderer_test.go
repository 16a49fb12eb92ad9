package render

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/source"
	"git.home.luguber.info/inful/pagesmith/internal/token"
)

func newTestRenderer(t *testing.T, opts ...Option) *Renderer {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "src/data/people.yaml", []byte("- name: Ada\n- name: Linus\n"), 0o644))
	tb := NewToolbox(token.NewSentinel("test"), WithDataFs(fsys, "src"))
	return NewRenderer(tb, opts...)
}

func TestRenderConventionalAndPipelineDelims(t *testing.T) {
	r := newTestRenderer(t)
	ctx := source.Context{"nav.html": "<nav/>"}

	out, err := r.Render("a.html", `{{ source "nav.html" }}|\o/ index .src "nav.html" /o\|{% if true %}yes{% end %}`, ctx)
	require.NoError(t, err)
	assert.Equal(t, "<nav/>|<nav/>|yes", out)
}

func TestRenderCustomDelims(t *testing.T) {
	r := newTestRenderer(t, WithDelims("<<", ">>"))
	out, err := r.Render("a", `<< "x" >>{{ "y" }}`, source.Context{})
	require.NoError(t, err)
	assert.Equal(t, "xy", out)
}

func TestRenderIsIdempotentOnPlainText(t *testing.T) {
	r := newTestRenderer(t)
	text := "<h1>Title</h1>\n<p>plain text, no constructs</p>\n"

	once, err := r.Render("p.html", text, source.Context{})
	require.NoError(t, err)
	twice, err := r.Render("p.html", once, source.Context{})
	require.NoError(t, err)
	assert.Equal(t, text, once)
	assert.Equal(t, once, twice)
}

func TestRenderMacroLibrary(t *testing.T) {
	lib := "{{ define \"greet\" }}Hello, {{ . }}!{{ end }}\n"
	r := newTestRenderer(t, WithMacroLibrary(lib))

	out, err := r.Render("a.html", `{{ template "greet" "Ada" }}`, source.Context{})
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada!", out)
}

func TestRenderMissingMacroIsRenderError(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render("a.html", `{{ template "greet" "Ada" }}`, source.Context{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRender))
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(t)
	tests := map[string]string{
		"parse":          `{{ if }}`,
		"missing source": `{{ source "nope.html" }}`,
		"missing key":    `{{ .nothing }}`,
		"unknown func":   `{{ nothing }}`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := r.Render("bad.html", text, source.Context{})
			require.Error(t, err)
			ce, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, ferrors.CategoryRender, ce.Category())
			assert.Equal(t, "bad.html", ce.Context()["path"])
		})
	}
}

func TestRenderTagBuilders(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.Render("a.html", "{{ start_page \"About Us\" }}\nHi\n{{ end_page }}", source.Context{})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `[--- PGSMtest -- {"page_name":"about-us","type":"start_page"}]`, lines[0])
	assert.Equal(t, `[--- PGSMtest -- {"type":"end_page"}]`, lines[2])
}

func TestRenderDataHelpers(t *testing.T) {
	r := newTestRenderer(t)
	text := `{{ range yaml "data/people.yaml" }}{{ .name }};{{ end }}` +
		`{{ $d := dict "a" (dict "b" "deep") }}{{ dig $d "a.b" }};` +
		`{{ lookup (dict "en" "English") "fr" }};` +
		`{{ ldelim }} .x {{ rdelim }};{{ .run }}`

	out, err := r.Render("a.html", text, source.Context{})
	require.NoError(t, err)
	assert.Equal(t, `Ada;Linus;deep;fr;\o/ .x /o\;test`, out)
}

func TestRenderMarkdown(t *testing.T) {
	r := newTestRenderer(t)
	out, err := r.Render("a.html", `{{ markdown "# Title" }}`, source.Context{})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>\n", out)
}

func TestDependencies(t *testing.T) {
	r := newTestRenderer(t)
	text := `{{ source "b.html" }}
{% if true %}{{ index .src "c.html" }}{% else %}{{ index $.src "d.html" }}{% end %}
{{ range list 1 }}{{ (source "b.html") | printf "%s" }}{{ end }}
{{ define "local" }}{{ source "e.html" }}{{ end }}
{{ source .dynamic }}`

	deps, err := r.Dependencies("a.html", text)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.html", "c.html", "d.html", "e.html"}, deps)
}

func TestDependenciesFollowMacroCalls(t *testing.T) {
	macros := `{{ define "nav" }}{{ source "z.html" }}{{ template "inner" . }}{{ end }}` +
		`{{ define "inner" }}{{ index .src "y.html" }}{{ template "nav" . }}{{ end }}` +
		`{{ define "unused" }}{{ source "u.html" }}{{ end }}`
	r := newTestRenderer(t, WithMacroLibrary(macros))

	deps, err := r.Dependencies("a.html", `A:{{ template "nav" . }}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"z.html", "y.html"}, deps)
}
