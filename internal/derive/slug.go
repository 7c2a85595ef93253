// Package derive holds the pure functions that compute derived book fields.
package derive

import (
	"regexp"
	"strings"
)

// untitledSlug is used when a title has no alphanumeric characters at all.
const untitledSlug = "untitled"

var (
	apostrophes = regexp.MustCompile(`['’]`)
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slug turns a title into a URL handle: lowercase, apostrophes dropped, every
// run of other non-alphanumerics collapsed to one hyphen, no hyphen at either
// end. Handles are not unique across books.
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = apostrophes.ReplaceAllString(s, "")
	s = nonAlnumRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return untitledSlug
	}
	return s
}
