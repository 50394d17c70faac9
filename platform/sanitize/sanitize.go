// Package sanitize turns stored rich text into plain text for search
// snippets and seed data.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// Text strips HTML tags, decodes entities and collapses runs of
// whitespace into single spaces. Tags revealed by entity decoding are
// stripped as well.
func Text(s string) string {
	out := htmlTag.ReplaceAllString(s, " ")
	out = html.UnescapeString(out)
	out = htmlTag.ReplaceAllString(out, " ")
	return strings.Join(strings.Fields(out), " ")
}

// TextPtr applies Text to an optional value. Nil stays nil, and a value
// that is empty after sanitizing becomes nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	if out == "" {
		return nil
	}
	return &out
}
