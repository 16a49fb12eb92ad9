// Package section extracts sentinel-delimited regions from rendered text.
//
// The extractor keeps at most one open region per input: the first sentinel
// line opens a section and the next one closes it, whatever type it declares.
// Lines outside any section form the residual body.
package section

import (
	"strings"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/token"
)

// Section is one extracted region.
type Section struct {
	Opening token.Tag
	Closing token.Tag
	Content string
}

// Result holds the sections of one input in document order and the residual body.
type Result struct {
	Sections []Section
	Body     string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithStrictPairing rejects closing tags that do not match the open section's type.
func WithStrictPairing(strict bool) Option {
	return func(s *Splitter) { s.strict = strict }
}

// Splitter extracts sections for one build's sentinel.
type Splitter struct {
	sentinel *token.Sentinel
	strict   bool
}

// NewSplitter creates a splitter recognising sentinels of s.
func NewSplitter(s *token.Sentinel, opts ...Option) *Splitter {
	sp := &Splitter{sentinel: s}
	for _, opt := range opts {
		opt(sp)
	}
	return sp
}

// Split scans text line by line and separates sections from the body.
func (sp *Splitter) Split(text string) (*Result, error) {
	var (
		res      = &Result{}
		body     []string
		buffer   []string
		open     token.Tag
		openLine int
		isOpen   bool
	)

	for i, line := range Lines(text) {
		payload, ok := sp.sentinel.Match(line)
		if !ok {
			if isOpen {
				buffer = append(buffer, line)
			} else {
				body = append(body, line)
			}
			continue
		}

		tag, err := token.Parse(payload)
		if err != nil {
			return nil, ferrors.StructureError("invalid sentinel payload").
				WithCause(err).
				WithContext(ferrors.KeyLine, i+1).
				Build()
		}

		if !isOpen {
			open, openLine, isOpen = tag, i+1, true
			buffer = buffer[:0]
			continue
		}

		if sp.strict && !token.Closes(open, tag) {
			return nil, ferrors.StructureError("closing tag does not match open section").
				WithContext(ferrors.KeyLine, i+1).
				WithContext("opening", open.Type()).
				WithContext("closing", tag.Type()).
				Build()
		}

		res.Sections = append(res.Sections, Section{
			Opening: open,
			Closing: tag,
			Content: strings.TrimSpace(strings.Join(buffer, "\n")),
		})
		open, isOpen = nil, false
	}

	if isOpen {
		return nil, ferrors.StructureError("unclosed section").
			WithContext(ferrors.KeyLine, openLine).
			WithContext("opening", open.Type()).
			Build()
	}

	res.Body = strings.Join(body, "\n")
	return res, nil
}

// Lines splits text into lines. A trailing carriage return is dropped from each
// line and a trailing newline does not produce a final empty line.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
