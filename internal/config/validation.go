package config

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// slugDelimiterPattern admits delimiters that survive a second slugify
// unchanged: a run of hyphens, or lowercase word characters only.
var slugDelimiterPattern = regexp.MustCompile(`^(?:-+|[\p{Ll}\p{Lo}\p{M}\p{N}_]+)$`)

// ValidSlugDelimiter reports whether slugs joined with d are stable under
// slugify.
func ValidSlugDelimiter(d string) bool {
	return slugDelimiterPattern.MatchString(d) && norm.NFKC.String(d) == d
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Render.LeftDelim == c.Render.RightDelim {
		return ferrors.ValidationError("left and right delimiters must differ").
			WithContext("field", "render.left_delim").
			Build()
	}
	for _, conventional := range []string{"{{", "}}", "{%", "%}"} {
		if strings.Contains(c.Render.LeftDelim, conventional) || strings.Contains(c.Render.RightDelim, conventional) {
			return ferrors.ValidationError("delimiters must not contain the conventional template syntax").
				WithContext("field", "render").
				WithContext("delimiter", conventional).
				Build()
		}
	}
	if !ValidSlugDelimiter(c.Render.SlugDelimiter) {
		return ferrors.ValidationError("slug delimiter must be hyphens or lowercase word characters").
			WithContext("field", "render.slug_delimiter").
			WithContext("delimiter", c.Render.SlugDelimiter).
			Build()
	}
	if strings.ContainsAny(c.Source.MacroLibrary, `/\`) {
		return ferrors.ValidationError("macro library must be a file directly under the source directory").
			WithContext("field", "source.macro_library").
			Build()
	}
	if c.Media.Target != "" {
		clean := filepath.Clean(c.Media.Target)
		if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return ferrors.ValidationError("media target must stay inside the output directory").
				WithContext("field", "media.target").
				Build()
		}
	}
	if filepath.Clean(c.Source.Directory) == filepath.Clean(c.Output.Directory) {
		return ferrors.ValidationError("source and output directories must differ").
			WithContext("field", "output.directory").
			Build()
	}
	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return ferrors.ValidationError("provider entry without name").
				WithContext("field", "providers").
				Build()
		}
		if _, dup := seen[p.Name]; dup {
			return ferrors.ValidationError("duplicate provider entry").
				WithContext("field", "providers").
				WithContext("provider", p.Name).
				Build()
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}
