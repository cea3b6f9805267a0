// Package sanitize provides helpers for cleaning user-supplied text before
// it is persisted.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags and unescapes entities.
func StripHTML(s string) string {
	stripped := tagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(stripped)
}

// Text strips HTML and trims surrounding whitespace.
func Text(s string) string {
	return strings.TrimSpace(StripHTML(s))
}

// TextPtr sanitizes an optional string. Empty results become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := Text(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
