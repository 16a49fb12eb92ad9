// Package output writes build results below the output root.
package output

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/section"
	"git.home.luguber.info/inful/pagesmith/internal/token"
)

// PageExtension is appended to section page names.
const PageExtension = ".html"

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

// Writer writes pages, bodies and media below one root directory.
type Writer struct {
	fs   afero.Fs
	root string
}

// NewWriter creates a writer for root on fsys.
func NewWriter(fsys afero.Fs, root string) *Writer {
	return &Writer{fs: fsys, root: root}
}

// Root returns the output root.
func (w *Writer) Root() string { return w.root }

// Prepare creates the output root, removing any previous content first when clean is set.
func (w *Writer) Prepare(clean bool) error {
	if clean {
		if err := w.fs.RemoveAll(w.root); err != nil {
			return ferrors.FileSystemError("failed to clean output directory").
				WithCause(err).
				WithContext(ferrors.KeyPath, w.root).
				Build()
		}
		slog.Info("Cleaned output directory", logfields.Output(w.root))
	}
	if err := w.fs.MkdirAll(w.root, dirPerm); err != nil {
		return ferrors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext(ferrors.KeyPath, w.root).
			Build()
	}
	return nil
}

// WriteSections writes every start_page section as its own page and returns
// how many pages were written. Sections of other types are dropped.
func (w *Writer) WriteSections(from string, sections []section.Section) (int, error) {
	written := 0
	for _, s := range sections {
		if s.Opening.Type() != token.TypeStartPage {
			slog.Debug("Dropping section with unsupported type",
				logfields.Path(from),
				slog.String("type", s.Opening.Type()))
			continue
		}
		name := s.Opening.PageName()
		if name == "" {
			return written, ferrors.StructureError("start_page section has no page name").
				WithContext(ferrors.KeyPath, from).
				Build()
		}
		full, err := w.write(name+PageExtension, []byte(s.Content))
		if err != nil {
			return written, err
		}
		slog.Info("Wrote page from section", logfields.Page(name), logfields.Path(full))
		written++
	}
	return written, nil
}

// WriteBody writes a residual body to its mirrored path. An empty body is
// skipped and reported as not written.
func (w *Writer) WriteBody(rel, body string) (bool, error) {
	if strings.TrimSpace(body) == "" {
		slog.Warn("Not writing file as its final content is empty", logfields.Path(rel))
		return false, nil
	}
	full, err := w.write(rel, []byte(body))
	if err != nil {
		return false, err
	}
	slog.Info("Wrote file", logfields.Path(full))
	return true, nil
}

// WriteLiteral writes data unchanged to its mirrored path.
func (w *Writer) WriteLiteral(rel string, data []byte) error {
	full, err := w.write(rel, data)
	if err != nil {
		return err
	}
	slog.Info("Copied literal file", logfields.Path(full))
	return nil
}

func (w *Writer) write(rel string, data []byte) (string, error) {
	full, err := w.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := w.fs.MkdirAll(filepath.Dir(full), dirPerm); err != nil {
		return "", ferrors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext(ferrors.KeyPath, full).
			Build()
	}
	if err := afero.WriteFile(w.fs, full, data, filePerm); err != nil {
		return "", ferrors.FileSystemError("failed to write output file").
			WithCause(err).
			WithContext(ferrors.KeyPath, full).
			Build()
	}
	return full, nil
}

// resolve maps a relative output path below the root, rejecting escapes.
func (w *Writer) resolve(rel string) (string, error) {
	if rel == "" {
		return "", ferrors.ValidationError("output path is required").Build()
	}
	cleanRel := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleanRel) || cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", ferrors.ValidationError("output path escapes output directory").
			WithContext(ferrors.KeyPath, rel).
			Build()
	}
	return filepath.Join(w.root, cleanRel), nil
}

// CopyTree mirrors the directory src on srcFs into target below the output
// root, merging with existing content. A missing src is skipped with a warning.
func (w *Writer) CopyTree(srcFs afero.Fs, src, target string) (int, error) {
	info, err := srcFs.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Media directory not found, skipping copy", logfields.Path(src))
			return 0, nil
		}
		return 0, ferrors.FileSystemError("media directory not accessible").
			WithCause(err).
			WithContext(ferrors.KeyPath, src).
			Build()
	}
	if !info.IsDir() {
		return 0, ferrors.FileSystemError("media path is not a directory").
			WithContext(ferrors.KeyPath, src).
			Build()
	}
	dst, err := w.resolve(target)
	if err != nil {
		return 0, err
	}

	copied := 0
	err = afero.Walk(srcFs, src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		out := filepath.Join(dst, rel)
		if fi.IsDir() {
			return w.fs.MkdirAll(out, dirPerm)
		}
		if !fi.Mode().IsRegular() {
			return nil
		}
		if err := copyFile(srcFs, p, w.fs, out); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to copy media").
			WithContext(ferrors.KeyPath, src).
			Build()
	}
	slog.Info("Copied media files", logfields.Count(copied), logfields.Output(dst))
	return copied, nil
}

func copyFile(srcFs afero.Fs, src string, dstFs afero.Fs, dst string) error {
	in, err := srcFs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := dstFs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
