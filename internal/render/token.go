package render

import (
	"regexp"
	"time"
)

// FragmentDelimiter separates rendered fragments inside a note body.
const FragmentDelimiter = "\n\n---\n\n"

// Fragments embed their creation timestamp as a parenthesized token,
// e.g. "(2024-01-05 14:30)". Notes written by prior versions carry the same
// shape, so the layout must not change. All parsing and formatting of the
// token lives in this file.
const tokenLayout = "2006-01-02 15:04"

var tokenPattern = regexp.MustCompile(`\((\d{4}-\d{2}-\d{2} \d{2}:\d{2})\)`)

// FormatToken renders t in loc as a fragment timestamp token.
func FormatToken(t time.Time, loc *time.Location) string {
	return "(" + t.In(loc).Format(tokenLayout) + ")"
}

// ParseToken extracts the first timestamp token from a fragment. The result
// carries no zone; it is only compared against other tokens for ordering.
func ParseToken(fragment string) (time.Time, bool) {
	m := tokenPattern.FindStringSubmatch(fragment)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(tokenLayout, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
