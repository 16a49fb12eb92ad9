// Package token implements the sentinel marker language that lets a rendered
// template carve itself into several output pages.
//
// A sentinel is a single line fragment of the form
//
//	[--- PGSM<run-id> -- {"type":"start_page","page_name":"about-us"}]
//
// The run id is drawn once per build so that ordinary document text cannot
// accidentally match the splitter's pattern.
package token

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Tag types understood by the output writer.
const (
	TypeStartPage = "start_page"
	TypeEndPage   = "end_page"
)

const markerPrefix = "PGSM"

// Tag is the JSON payload carried by a sentinel line.
type Tag map[string]any

// Type returns the tag's "type" field, or "" when absent or not a string.
func (t Tag) Type() string {
	s, _ := t["type"].(string)
	return s
}

// PageName returns the tag's "page_name" field.
func (t Tag) PageName() string {
	s, _ := t["page_name"].(string)
	return s
}

// StartPage builds an opening tag for a page. The name is used as given;
// slugification is the caller's concern.
func StartPage(pageName string) Tag {
	return Tag{"type": TypeStartPage, "page_name": pageName}
}

// EndPage builds a closing tag.
func EndPage() Tag {
	return Tag{"type": TypeEndPage}
}

// Closes reports whether closing is an acceptable partner for opening in strict mode.
func Closes(opening, closing Tag) bool {
	switch opening.Type() {
	case TypeStartPage:
		return closing.Type() == TypeEndPage
	default:
		return strings.HasPrefix(closing.Type(), "end_")
	}
}

// Sentinel bakes tags for one build and recognises them again in rendered text.
type Sentinel struct {
	runID   string
	marker  string
	pattern *regexp.Regexp
}

// NewRunID draws a fresh collision-resistant run identifier.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSentinel creates a sentinel scoped to runID. An empty runID draws a new one.
func NewSentinel(runID string) *Sentinel {
	if runID == "" {
		runID = NewRunID()
	}
	marker := markerPrefix + runID
	return &Sentinel{
		runID:   runID,
		marker:  marker,
		pattern: regexp.MustCompile(`\[---\s*` + regexp.QuoteMeta(marker) + `\s*--\s*(\{.*\})\s*\]`),
	}
}

// RunID returns the build-scoped identifier.
func (s *Sentinel) RunID() string {
	return s.runID
}

// Bake serialises a tag into sentinel text.
func (s *Sentinel) Bake(tag Tag) (string, error) {
	payload, err := json.Marshal(tag)
	if err != nil {
		return "", fmt.Errorf("encode tag: %w", err)
	}
	return fmt.Sprintf("[--- %s -- %s]", s.marker, payload), nil
}

// Match reports whether line carries a sentinel for this run and returns the raw payload.
func (s *Sentinel) Match(line string) (string, bool) {
	m := s.pattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Parse decodes a sentinel payload.
func Parse(payload string) (Tag, error) {
	var tag Tag
	if err := json.Unmarshal([]byte(payload), &tag); err != nil {
		return nil, fmt.Errorf("decode tag payload: %w", err)
	}
	if tag == nil {
		return nil, fmt.Errorf("decode tag payload: not an object")
	}
	return tag, nil
}
