// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strings"
	"time"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	invalid    = regexp.MustCompile(`[^a-z0-9_-]`)
	hyphens    = regexp.MustCompile(`-{2,}`)
)

// Make turns a title into a URL-safe slug: lowercased, whitespace runs
// collapsed to a single hyphen, non-word non-hyphen characters stripped,
// repeated hyphens collapsed, leading/trailing hyphens trimmed.
// Pure and deterministic. Uniqueness is NOT guaranteed; callers must check
// for an existing document with the same slug before insert.
func Make(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = whitespace.ReplaceAllString(s, "-")
	s = invalid.ReplaceAllString(s, "")
	s = hyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// MakeUnique appends a 6-digit time-derived suffix to reduce collision
// probability for sites that publish many same-titled pieces. This only
// lowers the odds of a clash; callers must still check for conflicts before
// insert.
func MakeUnique(title string, now time.Time) string {
	base := Make(title)
	suffix := now.Format("150405")
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
