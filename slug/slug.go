// Package slug turns human-entered artist names into canonical URL-safe
// identifiers. Every component that touches artist namespaces (upload,
// listing, lookup, delete) must go through Normalize so that all of them
// agree on the same folder/prefix name.
package slug

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9-]`)
	edgeHyphens   = regexp.MustCompile(`^-+|-+$`)
	validSlug     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// Normalize converts a display name to its slug: lowercase, whitespace runs
// collapsed to a single hyphen, everything outside [a-z0-9-] stripped, no
// leading or trailing hyphens. Inputs that arrive percent-encoded (route
// parameters) are decoded first; a failed decode falls back to the raw
// string. Normalize never fails — garbage input normalizes to "", which all
// callers treat as an invalid identifier.
func Normalize(input string) string {
	if decoded, err := url.PathUnescape(input); err == nil {
		input = decoded
	}
	s := strings.ToLower(strings.TrimSpace(input))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = invalidChars.ReplaceAllString(s, "")
	return edgeHyphens.ReplaceAllString(s, "")
}

// IsValid reports whether s is a non-empty canonical slug.
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}
