// Package render evaluates source files with text/template.
//
// Files are rendered with distinctive delimiters so that ordinary documents
// may contain the conventional ones. Before parsing, every "{{", "}}", "{%"
// and "%}" in the file and in the macro library is rewritten to the configured
// pair, which lets macros be written in the usual syntax.
package render

import (
	"bytes"
	"strings"
	"text/template"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/source"
)

// Default delimiters.
const (
	DefaultLeftDelim  = `\o/`
	DefaultRightDelim = `/o\`
)

const macroTemplateName = "_macros"

// Renderer renders files against a shared source context.
type Renderer struct {
	toolbox    *Toolbox
	macros     string
	leftDelim  string
	rightDelim string
	replacer   *strings.Replacer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithDelims overrides the pipeline delimiters.
func WithDelims(left, right string) Option {
	return func(r *Renderer) {
		if left != "" && right != "" {
			r.leftDelim, r.rightDelim = left, right
		}
	}
}

// WithMacroLibrary sets text whose definitions are available to every file.
func WithMacroLibrary(text string) Option {
	return func(r *Renderer) { r.macros = text }
}

// NewRenderer creates a renderer using tb as its helper surface.
func NewRenderer(tb *Toolbox, opts ...Option) *Renderer {
	r := &Renderer{
		toolbox:    tb,
		leftDelim:  DefaultLeftDelim,
		rightDelim: DefaultRightDelim,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.replacer = strings.NewReplacer(
		"{{", r.leftDelim,
		"}}", r.rightDelim,
		"{%", r.leftDelim,
		"%}", r.rightDelim,
	)
	return r
}

// Rewrite translates the conventional delimiters into the pipeline pair.
func (r *Renderer) Rewrite(text string) string {
	return r.replacer.Replace(text)
}

// Render evaluates text as the template named name.
func (r *Renderer) Render(name, text string, ctx source.Context) (string, error) {
	tpl, err := r.parse(name, text, ctx)
	if err != nil {
		return "", err
	}

	data := map[string]any{
		"src":       ctx,
		"providers": r.toolbox.Providers(),
		"run":       r.toolbox.Sentinel().RunID(),
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", ferrors.RenderError("template execution failed").
			WithCause(err).
			WithContext(ferrors.KeyPath, name).
			Build()
	}
	return buf.String(), nil
}

func (r *Renderer) newTemplate(name string, ctx source.Context) *template.Template {
	return template.New(name).
		Delims(r.leftDelim, r.rightDelim).
		Funcs(r.toolbox.funcs(ctx, r.leftDelim, r.rightDelim)).
		Option("missingkey=error")
}

func (r *Renderer) parse(name, text string, ctx source.Context) (*template.Template, error) {
	root := r.newTemplate(name, ctx)
	if r.macros != "" {
		if _, err := root.New(macroTemplateName).Parse(r.Rewrite(r.macros)); err != nil {
			return nil, ferrors.RenderError("failed to parse macro library").
				WithCause(err).
				WithContext(ferrors.KeyPath, name).
				Build()
		}
	}
	if _, err := root.Parse(r.Rewrite(text)); err != nil {
		return nil, parseError(name, err)
	}
	return root, nil
}

// parseFile parses text on its own, without the macro library.
func (r *Renderer) parseFile(name, text string) (*template.Template, error) {
	root := r.newTemplate(name, nil)
	if _, err := root.Parse(r.Rewrite(text)); err != nil {
		return nil, parseError(name, err)
	}
	return root, nil
}

func parseError(name string, err error) error {
	return ferrors.RenderError("failed to parse template").
		WithCause(err).
		WithContext(ferrors.KeyPath, name).
		Build()
}
