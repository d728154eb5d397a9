// Package textutil normalizes inbound message text before analysis.
package textutil

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxInputRunes bounds the text handed to the pipeline.
const MaxInputRunes = 4000

var strict = bluemonday.StrictPolicy()

// Clean strips markup, collapses whitespace runs to single spaces and truncates to
// MaxInputRunes. Invalid UTF-8 sequences are dropped.
func Clean(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, MaxInputRunes)
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// Preview returns a single-line prefix of s for logs and debug output, marking the
// cut with an ellipsis.
func Preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return Truncate(s, limit) + "…"
}
