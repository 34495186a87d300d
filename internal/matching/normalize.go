package matching

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, replaces punctuation with spaces and collapses
// whitespace. The output only contains [a-z0-9 ] and is idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)
	text = nonWordRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
