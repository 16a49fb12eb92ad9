// Package source loads the template tree and the shared macro library.
package source

import (
	"context"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// File is one template from the source tree.
type File struct {
	Path     string // slash separated, relative to the source root
	Raw      string
	Rendered string
	Literal  bool
}

// Store reads source files from an afero filesystem.
type Store struct {
	fs            afero.Fs
	root          string
	macroLibrary  string
	literalMarker string
}

// Option configures a Store.
type Option func(*Store)

// WithMacroLibrary sets the macro library file name directly under the root.
func WithMacroLibrary(name string) Option {
	return func(s *Store) { s.macroLibrary = name }
}

// WithLiteralMarker sets the prefix that marks a file as literal.
func WithLiteralMarker(marker string) Option {
	return func(s *Store) { s.literalMarker = marker }
}

// NewStore creates a store rooted at root on fsys.
func NewStore(fsys afero.Fs, root string, opts ...Option) *Store {
	s := &Store{fs: fsys, root: root}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the source root directory.
func (s *Store) Root() string { return s.root }

// Fs returns the backing filesystem.
func (s *Store) Fs() afero.Fs { return s.fs }

// Load walks the source root and returns every template in lexical order.
// The macro library is not part of the result.
func (s *Store) Load(ctx context.Context) ([]*File, error) {
	info, err := s.fs.Stat(s.root)
	if err != nil {
		return nil, ferrors.FileSystemError("source directory not accessible").
			WithCause(err).
			WithContext(ferrors.KeyPath, s.root).
			Build()
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("source path is not a directory").
			WithContext(ferrors.KeyPath, s.root).
			Build()
	}

	var files []*File
	walkErr := afero.Walk(s.fs, s.root, func(p string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if fi.IsDir() || !fi.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.macroLibrary != "" && rel == s.macroLibrary {
			return nil
		}

		f, err := s.readFile(p, rel)
		if err != nil {
			return err
		}
		slog.Debug("Found source file", logfields.Path(rel))
		files = append(files, f)
		return nil
	})
	if walkErr != nil {
		if ferrors.IsClassified(walkErr) || ctx.Err() != nil {
			return nil, walkErr
		}
		return nil, ferrors.WrapError(walkErr, ferrors.CategoryFileSystem, "failed to walk source directory").
			WithContext(ferrors.KeyPath, s.root).
			Build()
	}
	return files, nil
}

func (s *Store) readFile(full, rel string) (*File, error) {
	data, err := afero.ReadFile(s.fs, full)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to read source file").
			WithCause(err).
			WithContext(ferrors.KeyPath, rel).
			Build()
	}
	if !utf8.Valid(data) {
		return nil, ferrors.FileSystemError("source file cannot be decoded as text").
			WithContext(ferrors.KeyPath, rel).
			Build()
	}
	raw := string(data)
	return &File{
		Path:     rel,
		Raw:      raw,
		Rendered: raw,
		Literal:  s.literalMarker != "" && strings.HasPrefix(raw, s.literalMarker),
	}, nil
}

// LoadMacroLibrary returns the macro library text and whether it exists. A
// missing library yields empty text and a warning.
func (s *Store) LoadMacroLibrary() (string, bool, error) {
	if s.macroLibrary == "" {
		return "", false, nil
	}
	p := filepath.Join(s.root, filepath.FromSlash(s.macroLibrary))
	ok, err := afero.Exists(s.fs, p)
	if err != nil {
		return "", false, ferrors.FileSystemError("failed to stat macro library").
			WithCause(err).
			WithContext(ferrors.KeyPath, p).
			Build()
	}
	if !ok {
		slog.Warn("Macro library not found, no macros will be prepended", logfields.Path(path.Join(filepath.ToSlash(s.root), s.macroLibrary)))
		return "", false, nil
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return "", false, ferrors.FileSystemError("failed to read macro library").
			WithCause(err).
			WithContext(ferrors.KeyPath, p).
			Build()
	}
	if !utf8.Valid(data) {
		return "", false, ferrors.FileSystemError("macro library cannot be decoded as text").
			WithContext(ferrors.KeyPath, p).
			Build()
	}
	return string(data), true, nil
}

// Context maps source paths to their current content. It is shared by every
// render of one build and updated in place by the in-memory pass.
type Context map[string]string

// NewContext seeds a context with the raw content of files.
func NewContext(files []*File) Context {
	c := make(Context, len(files))
	for _, f := range files {
		c[f.Path] = f.Raw
	}
	return c
}
