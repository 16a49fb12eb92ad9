package render

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/pagesmith/internal/source"
	"git.home.luguber.info/inful/pagesmith/internal/token"
)

// DefaultSlugDelimiter separates words in slugs.
const DefaultSlugDelimiter = "-"

// Toolbox is the helper surface exposed to templates. It is built once per
// build and never mutated afterwards.
type Toolbox struct {
	sentinel      *token.Sentinel
	slugDelimiter string
	fs            afero.Fs
	root          string
	providers     map[string]any
	md            goldmark.Markdown
}

// ToolboxOption configures a Toolbox.
type ToolboxOption func(*Toolbox)

// WithSlugDelimiter sets the default slug delimiter.
func WithSlugDelimiter(d string) ToolboxOption {
	return func(tb *Toolbox) {
		if d != "" {
			tb.slugDelimiter = d
		}
	}
}

// WithDataFs lets the yaml helper read files below root on fsys.
func WithDataFs(fsys afero.Fs, root string) ToolboxOption {
	return func(tb *Toolbox) {
		tb.fs = fsys
		tb.root = root
	}
}

// WithProviders exposes provider namespaces to templates.
func WithProviders(p map[string]any) ToolboxOption {
	return func(tb *Toolbox) { tb.providers = p }
}

// NewToolbox creates the helper surface for one build.
func NewToolbox(sentinel *token.Sentinel, opts ...ToolboxOption) *Toolbox {
	tb := &Toolbox{
		sentinel:      sentinel,
		slugDelimiter: DefaultSlugDelimiter,
		providers:     map[string]any{},
		md:            goldmark.New(),
	}
	for _, opt := range opts {
		opt(tb)
	}
	return tb
}

// Sentinel returns the build's sentinel.
func (tb *Toolbox) Sentinel() *token.Sentinel { return tb.sentinel }

// Providers returns the provider namespaces.
func (tb *Toolbox) Providers() map[string]any { return tb.providers }

// Slugify applies the toolbox delimiter unless one is given.
func (tb *Toolbox) Slugify(text string, delimiter ...string) string {
	d := tb.slugDelimiter
	if len(delimiter) > 0 {
		d = delimiter[0]
	}
	return Slugify(text, d)
}

// StartPage bakes an opening tag for a page named after the slug of name.
func (tb *Toolbox) StartPage(name string) (string, error) {
	return tb.sentinel.Bake(token.StartPage(tb.Slugify(name)))
}

// EndPage bakes a closing tag.
func (tb *Toolbox) EndPage() (string, error) {
	return tb.sentinel.Bake(token.EndPage())
}

// LoadYAML parses a YAML file below the data root.
func (tb *Toolbox) LoadYAML(rel string) (any, error) {
	if tb.fs == nil {
		return nil, fmt.Errorf("yaml %q: no data filesystem configured", rel)
	}
	clean := path.Clean("/" + filepath.ToSlash(rel))
	data, err := afero.ReadFile(tb.fs, filepath.Join(tb.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))))
	if err != nil {
		return nil, fmt.Errorf("yaml %q: %w", rel, err)
	}
	var out any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("yaml %q: %w", rel, err)
	}
	return out, nil
}

// Markdown converts CommonMark text to HTML.
func (tb *Toolbox) Markdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := tb.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}

// funcs binds the helper surface to one render context. ldelim and rdelim
// emit the pipeline delimiters, so an action spelled with them in the memory
// pass is evaluated by the output pass.
func (tb *Toolbox) funcs(ctx source.Context, leftDelim, rightDelim string) template.FuncMap {
	return template.FuncMap{
		"source": func(p string) (string, error) {
			content, ok := ctx[p]
			if !ok {
				return "", fmt.Errorf("source %q: no such file", p)
			}
			return content, nil
		},
		"dig":        Dig,
		"uniq":       Uniq,
		"lookup":     Lookup,
		"slugify":    tb.Slugify,
		"start_page": tb.StartPage,
		"end_page":   tb.EndPage,
		"yaml":       tb.LoadYAML,
		"markdown":   tb.Markdown,
		"dict":       Dict,
		"list":       List,
		"ldelim":     func() string { return leftDelim },
		"rdelim":     func() string { return rightDelim },
	}
}
