package extract

import (
	"regexp"
	"strings"
)

var (
	reDisallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s@.,()\-+#:/]+`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Normalize replaces characters outside the allow-list with spaces, collapses
// whitespace runs to one space and trims.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToValidUTF8(s, " ")
	s = reDisallowed.ReplaceAllString(s, " ")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
